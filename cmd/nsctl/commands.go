package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"

	"github.com/andreyvit/naming"
)

func initCommand(c *cli.Context) error {
	return withManager(c, true, func(m *naming.Manager) error {
		root, err := m.Activate(m.RootKey())
		if err != nil {
			return err
		}
		fmt.Printf("root context %s, %d bindings\n", Cyan(string(root.Key())), root.Len())
		return nil
	})
}

func newKeyCommand(c *cli.Context) error {
	return withManager(c, false, func(m *naming.Manager) error {
		key, err := m.NewKey()
		if err != nil {
			return err
		}
		fmt.Println(key)
		return nil
	})
}

func mkctxCommand(c *cli.Context) error {
	return withManager(c, false, func(m *naming.Manager) error {
		parent, name, err := resolveParent(m, c.Args().First())
		if err != nil {
			return err
		}
		child, err := m.BindNewContext(parent, name)
		if err != nil {
			return err
		}
		fmt.Printf("%s -> %s\n", name, Cyan(string(child.Key())))
		return nil
	})
}

func bindCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fail(errors.New("usage: bind PATH REF"))
	}
	return withManager(c, false, func(m *naming.Manager) error {
		parent, name, err := resolveParent(m, c.Args().Get(0))
		if err != nil {
			return err
		}
		bv := naming.BindingValue{Type: naming.ObjectBinding, Ref: c.Args().Get(1)}
		if c.Bool("force") {
			return m.Rebind(parent, name, bv)
		}
		return m.Bind(parent, name, bv)
	})
}

func unbindCommand(c *cli.Context) error {
	return withManager(c, false, func(m *naming.Manager) error {
		parent, name, err := resolveParent(m, c.Args().First())
		if err != nil {
			return err
		}
		return m.Unbind(parent, name)
	})
}

func resolveCommand(c *cli.Context) error {
	return withManager(c, false, func(m *naming.Manager) error {
		path, err := naming.ParseName(c.Args().First())
		if err != nil {
			return err
		}
		root, err := m.Activate(m.RootKey())
		if err != nil {
			return err
		}
		bv, err := m.ResolvePath(root, path)
		if err != nil {
			return err
		}
		fmt.Printf("%v %s\n", bv.Type, formatRef(bv.Type, bv.Ref))
		return nil
	})
}

func lsCommand(c *cli.Context) error {
	batch := c.Int("batch")
	if batch <= 0 {
		return fail(naming.ErrInvalidBatchSize)
	}
	return withManager(c, false, func(m *naming.Manager) error {
		path, err := naming.ParseName(c.Args().First())
		if err != nil {
			return err
		}
		root, err := m.Activate(m.RootKey())
		if err != nil {
			return err
		}
		ctx, err := m.ResolveContext(root, path)
		if err != nil {
			return err
		}
		defer m.Release(ctx)

		first, e, _ := m.List(ctx, batch)
		printBindings(first)
		if e == nil {
			return nil
		}
		defer e.Destroy()
		for {
			bindings, more, err := e.AdvanceN(batch)
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
			printBindings(bindings)
		}
	})
}

func keysCommand(c *cli.Context) error {
	return withManager(c, false, func(m *naming.Manager) error {
		keys, err := m.Store().Keys()
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Println(k)
		}
		return nil
	})
}

func resolveParent(m *naming.Manager, pathStr string) (*naming.Container, naming.NameComponent, error) {
	path, err := naming.ParseName(pathStr)
	if err != nil {
		return nil, naming.NameComponent{}, err
	}
	if len(path) == 0 {
		return nil, naming.NameComponent{}, fmt.Errorf("%w: path required", naming.ErrInvalidName)
	}
	root, err := m.Activate(m.RootKey())
	if err != nil {
		return nil, naming.NameComponent{}, err
	}
	parent, err := m.ResolveContext(root, path[:len(path)-1])
	if err != nil {
		return nil, naming.NameComponent{}, err
	}
	return parent, path[len(path)-1], nil
}

func printBindings(bindings []naming.Binding) {
	for _, b := range bindings {
		fmt.Printf("%-24s %-8v %s\n", b.Name[0].String(), b.Type, formatRef(b.Type, b.Ref))
	}
}

func formatRef(bt naming.BindingType, ref string) string {
	if bt == naming.ContextBinding {
		return Cyan(ref)
	}
	return ref
}
