package object

// ClassMember is one discovered member of a class, tagged with the class
// that defines it.
type ClassMember struct {
	Name      string
	Object    *Object
	Class     *Object
	Docstring string
}

// ClassMembers walks the class ancestry and collects every member, keeping
// the most derived definition of each name. Annotation-only names, slots
// declarations and runtime instance attributes surface as their sentinel
// placeholders so the member filter can treat them as attributes.
func ClassMembers(cls *Object) map[string]*ClassMember {
	members := map[string]*ClassMember{}
	add := func(name string, obj *Object, owner *Object, doc string) {
		if _, seen := members[name]; seen {
			return
		}
		members[name] = &ClassMember{Name: name, Object: obj, Class: owner, Docstring: doc}
	}
	for _, ancestor := range cls.Ancestry() {
		for name, doc := range ancestor.Slots {
			add(name, SlotsAttr, ancestor, doc)
		}
		for _, name := range ancestor.AttrNames() {
			obj, _ := ancestor.OwnAttr(name)
			add(name, obj, ancestor, "")
		}
		for name := range ancestor.Annotations {
			add(name, InstanceAttr, ancestor, "")
		}
		for _, name := range ancestor.RuntimeAttrs {
			add(name, RuntimeInstanceAttr, ancestor, "")
		}
	}
	return members
}
