package cpool

import (
	"github.com/wippyai/jclass/mutf8"
)

// Materialized pool values. Resolving a typed index tag-checks the entry and
// recursively resolves every nested index it contains, depth-first, stopping
// at the first failure. Resolution always terminates without a depth guard
// because the format grammar has no recursive entry kinds: every composite
// entry only references strictly simpler ones.

// Class is a resolved class reference.
type Class struct {
	Name mutf8.MString
}

// FieldRef is a resolved field reference.
type FieldRef struct {
	Class       Class
	NameAndType NameAndType
}

// MethodRef is a resolved method reference.
type MethodRef struct {
	Class       Class
	NameAndType NameAndType
}

// InterfaceMethodRef is a resolved interface method reference.
type InterfaceMethodRef struct {
	Class       Class
	NameAndType NameAndType
}

// String is a resolved string literal.
type String struct {
	Value mutf8.MString
}

// NameAndType is a resolved name/descriptor pair.
type NameAndType struct {
	Name       mutf8.MString
	Descriptor mutf8.MString
}

// MethodType is a resolved method descriptor.
type MethodType struct {
	Descriptor mutf8.MString
}

// MethodHandle is a resolved method handle. Reference stays a raw entry
// because its kind depends on Kind.
type MethodHandle struct {
	Kind      MethodKind
	Reference Entry
}

// Dynamic is a resolved dynamically computed constant.
type Dynamic struct {
	BootstrapMethod uint16
	NameAndType     NameAndType
}

// InvokeDynamic is a resolved dynamically computed call site.
type InvokeDynamic struct {
	BootstrapMethod uint16
	NameAndType     NameAndType
}

// Module is a resolved module reference.
type Module struct {
	Name mutf8.MString
}

// Package is a resolved package reference.
type Package struct {
	Name mutf8.MString
}

// ResolveClass materializes a class reference.
func (p *Pool) ResolveClass(i Index[ConstantClass]) (Class, error) {
	e, err := Get(p, i)
	if err != nil {
		return Class{}, err
	}
	name, err := p.Retrieve(e.Name)
	if err != nil {
		return Class{}, err
	}
	return Class{Name: name}, nil
}

// ResolveString materializes a string literal.
func (p *Pool) ResolveString(i Index[ConstantString]) (String, error) {
	e, err := Get(p, i)
	if err != nil {
		return String{}, err
	}
	v, err := p.Retrieve(e.String)
	if err != nil {
		return String{}, err
	}
	return String{Value: v}, nil
}

// ResolveNameAndType materializes a name/descriptor pair.
func (p *Pool) ResolveNameAndType(i Index[ConstantNameAndType]) (NameAndType, error) {
	e, err := Get(p, i)
	if err != nil {
		return NameAndType{}, err
	}
	name, err := p.Retrieve(e.Name)
	if err != nil {
		return NameAndType{}, err
	}
	desc, err := p.Retrieve(e.Descriptor)
	if err != nil {
		return NameAndType{}, err
	}
	return NameAndType{Name: name, Descriptor: desc}, nil
}

// ResolveFieldRef materializes a field reference.
func (p *Pool) ResolveFieldRef(i Index[ConstantFieldRef]) (FieldRef, error) {
	e, err := Get(p, i)
	if err != nil {
		return FieldRef{}, err
	}
	class, nt, err := p.resolveRef(e.Class, e.NameAndType)
	if err != nil {
		return FieldRef{}, err
	}
	return FieldRef{Class: class, NameAndType: nt}, nil
}

// ResolveMethodRef materializes a method reference.
func (p *Pool) ResolveMethodRef(i Index[ConstantMethodRef]) (MethodRef, error) {
	e, err := Get(p, i)
	if err != nil {
		return MethodRef{}, err
	}
	class, nt, err := p.resolveRef(e.Class, e.NameAndType)
	if err != nil {
		return MethodRef{}, err
	}
	return MethodRef{Class: class, NameAndType: nt}, nil
}

// ResolveInterfaceMethodRef materializes an interface method reference.
func (p *Pool) ResolveInterfaceMethodRef(i Index[ConstantInterfaceMethodRef]) (InterfaceMethodRef, error) {
	e, err := Get(p, i)
	if err != nil {
		return InterfaceMethodRef{}, err
	}
	class, nt, err := p.resolveRef(e.Class, e.NameAndType)
	if err != nil {
		return InterfaceMethodRef{}, err
	}
	return InterfaceMethodRef{Class: class, NameAndType: nt}, nil
}

func (p *Pool) resolveRef(ci Index[ConstantClass], nti Index[ConstantNameAndType]) (Class, NameAndType, error) {
	class, err := p.ResolveClass(ci)
	if err != nil {
		return Class{}, NameAndType{}, err
	}
	nt, err := p.ResolveNameAndType(nti)
	if err != nil {
		return Class{}, NameAndType{}, err
	}
	return class, nt, nil
}

// ResolveMethodType materializes a method descriptor.
func (p *Pool) ResolveMethodType(i Index[ConstantMethodType]) (MethodType, error) {
	e, err := Get(p, i)
	if err != nil {
		return MethodType{}, err
	}
	desc, err := p.Retrieve(e.Descriptor)
	if err != nil {
		return MethodType{}, err
	}
	return MethodType{Descriptor: desc}, nil
}

// ResolveMethodHandle materializes a method handle, fetching the referenced
// entry without interpreting its kind.
func (p *Pool) ResolveMethodHandle(i Index[ConstantMethodHandle]) (MethodHandle, error) {
	e, err := Get(p, i)
	if err != nil {
		return MethodHandle{}, err
	}
	ref, err := p.GetAny(e.Reference)
	if err != nil {
		return MethodHandle{}, err
	}
	return MethodHandle{Kind: e.Kind, Reference: ref}, nil
}

// ResolveDynamic materializes a dynamically computed constant.
func (p *Pool) ResolveDynamic(i Index[ConstantDynamic]) (Dynamic, error) {
	e, err := Get(p, i)
	if err != nil {
		return Dynamic{}, err
	}
	nt, err := p.ResolveNameAndType(e.NameAndType)
	if err != nil {
		return Dynamic{}, err
	}
	return Dynamic{BootstrapMethod: e.BootstrapMethod, NameAndType: nt}, nil
}

// ResolveInvokeDynamic materializes a dynamically computed call site.
func (p *Pool) ResolveInvokeDynamic(i Index[ConstantInvokeDynamic]) (InvokeDynamic, error) {
	e, err := Get(p, i)
	if err != nil {
		return InvokeDynamic{}, err
	}
	nt, err := p.ResolveNameAndType(e.NameAndType)
	if err != nil {
		return InvokeDynamic{}, err
	}
	return InvokeDynamic{BootstrapMethod: e.BootstrapMethod, NameAndType: nt}, nil
}

// ResolveModule materializes a module reference.
func (p *Pool) ResolveModule(i Index[ConstantModule]) (Module, error) {
	e, err := Get(p, i)
	if err != nil {
		return Module{}, err
	}
	name, err := p.Retrieve(e.Name)
	if err != nil {
		return Module{}, err
	}
	return Module{Name: name}, nil
}

// ResolvePackage materializes a package reference.
func (p *Pool) ResolvePackage(i Index[ConstantPackage]) (Package, error) {
	e, err := Get(p, i)
	if err != nil {
		return Package{}, err
	}
	name, err := p.Retrieve(e.Name)
	if err != nil {
		return Package{}, err
	}
	return Package{Name: name}, nil
}

// ResolveInteger returns the value behind an integer index.
func (p *Pool) ResolveInteger(i Index[ConstantInteger]) (int32, error) {
	e, err := Get(p, i)
	return e.Value, err
}

// ResolveFloat returns the value behind a float index.
func (p *Pool) ResolveFloat(i Index[ConstantFloat]) (float32, error) {
	e, err := Get(p, i)
	return e.Value, err
}

// ResolveLong returns the value behind a long index.
func (p *Pool) ResolveLong(i Index[ConstantLong]) (int64, error) {
	e, err := Get(p, i)
	return e.Value, err
}

// ResolveDouble returns the value behind a double index.
func (p *Pool) ResolveDouble(i Index[ConstantDouble]) (float64, error) {
	e, err := Get(p, i)
	return e.Value, err
}
