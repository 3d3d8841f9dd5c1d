package sandbox

import (
	"strings"

	"github.com/dop251/goja"
)

// injectDOM injects the document stub into the runtime
func (c *Context) injectDOM() error {
	vm := c.vm
	dom := c.dom
	document := vm.NewObject()

	methods := map[string]func(goja.FunctionCall) goja.Value{
		"getElementById": func(call goja.FunctionCall) goja.Value {
			if elem := dom.ByID(call.Argument(0).String()); elem != nil {
				return c.elementProxy(elem)
			}
			return goja.Null()
		},
		"querySelector": func(call goja.FunctionCall) goja.Value {
			if elems := dom.Query(call.Argument(0).String()); len(elems) > 0 {
				return c.elementProxy(elems[0])
			}
			return goja.Null()
		},
		"querySelectorAll": func(call goja.FunctionCall) goja.Value {
			return c.elementList(dom.Query(call.Argument(0).String()))
		},
		"getElementsByClassName": func(call goja.FunctionCall) goja.Value {
			return c.elementList(dom.Query("." + call.Argument(0).String()))
		},
		"getElementsByTagName": func(call goja.FunctionCall) goja.Value {
			return c.elementList(dom.Query(call.Argument(0).String()))
		},
		"createElement": func(call goja.FunctionCall) goja.Value {
			return c.elementProxy(newElement(call.Argument(0).String()))
		},
		"addEventListener": func(call goja.FunctionCall) goja.Value {
			return goja.Undefined()
		},
	}
	for name, fn := range methods {
		if err := document.Set(name, fn); err != nil {
			return err
		}
	}

	if err := document.Set("body", c.elementProxy(dom.Body())); err != nil {
		return err
	}
	return vm.Set("document", document)
}

func (c *Context) elementList(elems []*Element) goja.Value {
	proxies := make([]interface{}, 0, len(elems))
	for _, e := range elems {
		proxies = append(proxies, c.elementProxy(e))
	}
	return c.vm.NewArray(proxies...)
}

// domException builds the error a browser raises for an invalid DOM call.
func (c *Context) domException(message string) *goja.Object {
	ex := c.vm.NewTypeError(message)
	_ = ex.Set("name", "DOMException")
	return ex
}

// element returns the element behind a proxy, or nil for any other value.
func (c *Context) element(v goja.Value) *Element {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	return c.elements[obj]
}

// elementProxy exposes an element to JS. Each element has exactly one proxy,
// so identity comparisons and appendChild work across lookups. Writes go
// through the DOM so they are recorded as changes.
func (c *Context) elementProxy(elem *Element) goja.Value {
	if obj, ok := c.proxies[elem]; ok {
		return obj
	}

	vm := c.vm
	dom := c.dom
	obj := vm.NewObject()
	c.proxies[elem] = obj
	c.elements[obj] = elem

	_ = obj.Set("tagName", elem.TagName)
	_ = obj.Set("nodeName", elem.TagName)
	_ = obj.Set("style", vm.NewObject())
	_ = obj.Set("dataset", vm.NewObject())

	accessor := func(name string, get func() goja.Value, set func(goja.Value)) {
		getter := vm.ToValue(func(goja.FunctionCall) goja.Value { return get() })
		var setter goja.Value
		if set != nil {
			setter = vm.ToValue(func(call goja.FunctionCall) goja.Value {
				set(call.Argument(0))
				return goja.Undefined()
			})
		}
		_ = obj.DefineAccessorProperty(name, getter, setter, goja.FLAG_TRUE, goja.FLAG_TRUE)
	}
	attribute := func(prop, attr string) {
		accessor(prop,
			func() goja.Value {
				v, _ := elem.GetAttribute(attr)
				return vm.ToValue(v)
			},
			func(v goja.Value) { dom.SetAttribute(elem, attr, v.String()) })
	}

	attribute("id", "id")
	attribute("className", "class")

	accessor("textContent",
		func() goja.Value { return vm.ToValue(dom.Text(elem)) },
		func(v goja.Value) { dom.SetText(elem, v.String()) })
	accessor("innerText",
		func() goja.Value { return vm.ToValue(dom.Text(elem)) },
		func(v goja.Value) { dom.SetText(elem, v.String()) })
	accessor("innerHTML",
		func() goja.Value { return vm.ToValue(dom.InnerHTML(elem)) },
		func(v goja.Value) {
			if err := dom.SetInnerHTML(elem, v.String()); err != nil {
				panic(c.domException(err.Error()))
			}
		})
	accessor("children",
		func() goja.Value { return c.elementList(dom.ChildList(elem)) },
		nil)
	accessor("parentNode",
		func() goja.Value {
			if elem.Parent == nil {
				return goja.Null()
			}
			return c.elementProxy(elem.Parent)
		},
		nil)

	_ = obj.Set("classList", c.classList(elem))

	_ = obj.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		if v, ok := elem.GetAttribute(call.Argument(0).String()); ok {
			return vm.ToValue(v)
		}
		return goja.Null()
	})
	_ = obj.Set("setAttribute", func(call goja.FunctionCall) goja.Value {
		dom.SetAttribute(elem, call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	_ = obj.Set("appendChild", func(call goja.FunctionCall) goja.Value {
		child := c.element(call.Argument(0))
		if child == nil {
			panic(vm.NewTypeError("Failed to execute 'appendChild': parameter 1 is not of type 'Node'."))
		}
		if err := dom.AppendChild(elem, child); err != nil {
			panic(c.domException("Failed to execute 'appendChild': " + err.Error() + "."))
		}
		return call.Argument(0)
	})
	_ = obj.Set("removeChild", func(call goja.FunctionCall) goja.Value {
		child := c.element(call.Argument(0))
		if child == nil || child.Parent != elem {
			panic(c.domException("Failed to execute 'removeChild': the node to be removed is not a child of this node."))
		}
		dom.RemoveElement(child)
		return call.Argument(0)
	})
	_ = obj.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		if found := dom.QueryWithin(elem, call.Argument(0).String()); len(found) > 0 {
			return c.elementProxy(found[0])
		}
		return goja.Null()
	})
	_ = obj.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		return c.elementList(dom.QueryWithin(elem, call.Argument(0).String()))
	})
	_ = obj.Set("addEventListener", func(goja.FunctionCall) goja.Value {
		return goja.Undefined()
	})
	_ = obj.Set("remove", func(goja.FunctionCall) goja.Value {
		dom.RemoveElement(elem)
		return goja.Undefined()
	})

	return obj
}

// classList edits the class attribute token by token.
func (c *Context) classList(elem *Element) *goja.Object {
	vm := c.vm
	dom := c.dom
	list := vm.NewObject()

	has := func(name string) bool {
		for _, cls := range strings.Fields(elem.ClassName) {
			if cls == name {
				return true
			}
		}
		return false
	}
	write := func(classes []string) {
		dom.SetAttribute(elem, "class", strings.Join(classes, " "))
	}
	without := func(name string) []string {
		var kept []string
		for _, cls := range strings.Fields(elem.ClassName) {
			if cls != name {
				kept = append(kept, cls)
			}
		}
		return kept
	}

	_ = list.Set("contains", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(has(call.Argument(0).String()))
	})
	_ = list.Set("add", func(call goja.FunctionCall) goja.Value {
		classes := strings.Fields(elem.ClassName)
		for _, arg := range call.Arguments {
			if name := arg.String(); !has(name) {
				classes = append(classes, name)
			}
		}
		write(classes)
		return goja.Undefined()
	})
	_ = list.Set("remove", func(call goja.FunctionCall) goja.Value {
		for _, arg := range call.Arguments {
			write(without(arg.String()))
		}
		return goja.Undefined()
	})
	_ = list.Set("toggle", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		if has(name) {
			write(without(name))
			return vm.ToValue(false)
		}
		write(append(strings.Fields(elem.ClassName), name))
		return vm.ToValue(true)
	})
	return list
}
