package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/jclass/classfile"
	"github.com/wippyai/jclass/cpool"
)

func main() {
	var (
		classFile   = flag.String("class", "", "Path to class file")
		showPool    = flag.Bool("pool", false, "Dump the constant pool")
		showCode    = flag.Bool("code", false, "Dump method bytecode")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *classFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: classinfo -class <file.class> [-pool] [-code]")
		fmt.Fprintln(os.Stderr, "       classinfo -class <file.class> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		classfile.SetLogger(logger)
	}

	if *interactive {
		if err := runInteractive(*classFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*classFile, *showPool, *showCode); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// styles degrade to plain text when stdout is not a terminal
type printer struct {
	heading lipgloss.Style
	name    lipgloss.Style
	dim     lipgloss.Style
}

func newPrinter() *printer {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		plain := lipgloss.NewStyle()
		return &printer{heading: plain, name: plain, dim: plain}
	}
	return &printer{
		heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		name:    lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
}

func run(path string, showPool, showCode bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	class, err := classfile.NewClass(data)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	p := newPrinter()

	v := class.Version()
	fmt.Printf("%s %s\n", p.heading.Render("Class:"), path)
	fmt.Printf("Version: %d.%d\n", v.Major, v.Minor)

	pool, err := class.Pool()
	if err != nil {
		return fmt.Errorf("constant pool: %w", err)
	}
	fmt.Printf("Pool slots: %d\n", pool.Slots())

	flags, err := class.AccessFlags()
	if err != nil {
		return err
	}
	fmt.Printf("Access: %s\n", accessString(flags))

	name, err := class.ThisClassName()
	if err != nil {
		return err
	}
	fmt.Printf("This: %s\n", p.name.Render(name.String()))

	superName, err := class.SuperClassName()
	if err != nil {
		return err
	}
	if superName != nil {
		fmt.Printf("Super: %s\n", p.name.Render(superName.String()))
	}

	ifaces, err := class.Interfaces()
	if err != nil {
		return err
	}
	if ifaces.Count() > 0 {
		fmt.Printf("\n%s\n", p.heading.Render("Interfaces:"))
		it := ifaces.Iter()
		for it.Next() {
			iface, err := pool.ResolveClass(it.Value())
			if err != nil {
				return err
			}
			fmt.Printf("  %s\n", iface.Name.String())
		}
		if err := it.Err(); err != nil {
			return err
		}
	}

	if showPool {
		if err := dumpPool(p, pool); err != nil {
			return err
		}
	}
	if err := dumpFields(p, class, pool); err != nil {
		return err
	}
	if err := dumpMethods(p, class, pool, showCode); err != nil {
		return err
	}
	return dumpAttributes(p, class, pool)
}

func dumpPool(p *printer, pool *cpool.Pool) error {
	fmt.Printf("\n%s\n", p.heading.Render("Constant pool:"))
	for i := 1; i < pool.Slots(); i++ {
		entry, err := pool.GetAny(uint16(i))
		if err != nil {
			continue // slot after a wide entry
		}
		fmt.Printf("  %s %s\n", p.dim.Render(fmt.Sprintf("#%-4d", i)), entryString(pool, entry))
	}
	return nil
}

func entryString(pool *cpool.Pool, entry cpool.Entry) string {
	switch e := entry.(type) {
	case cpool.ConstantUtf8:
		return fmt.Sprintf("Utf8 %q", e.Content.String())
	case cpool.ConstantInteger:
		return fmt.Sprintf("Integer %d", e.Value)
	case cpool.ConstantFloat:
		return fmt.Sprintf("Float %g", e.Value)
	case cpool.ConstantLong:
		return fmt.Sprintf("Long %d", e.Value)
	case cpool.ConstantDouble:
		return fmt.Sprintf("Double %g", e.Value)
	case cpool.ConstantClass:
		name, err := pool.Retrieve(e.Name)
		if err != nil {
			return fmt.Sprintf("Class #%d", e.Name)
		}
		return fmt.Sprintf("Class %s", name.String())
	case cpool.ConstantString:
		s, err := pool.Retrieve(e.String)
		if err != nil {
			return fmt.Sprintf("String #%d", e.String)
		}
		return fmt.Sprintf("String %q", s.String())
	case cpool.ConstantNameAndType:
		return fmt.Sprintf("NameAndType #%d:#%d", e.Name, e.Descriptor)
	case cpool.ConstantFieldRef:
		return fmt.Sprintf("FieldRef #%d.#%d", e.Class, e.NameAndType)
	case cpool.ConstantMethodRef:
		return fmt.Sprintf("MethodRef #%d.#%d", e.Class, e.NameAndType)
	case cpool.ConstantInterfaceMethodRef:
		return fmt.Sprintf("InterfaceMethodRef #%d.#%d", e.Class, e.NameAndType)
	case cpool.ConstantMethodHandle:
		return fmt.Sprintf("MethodHandle kind=%d #%d", e.Kind, e.Reference)
	case cpool.ConstantMethodType:
		return fmt.Sprintf("MethodType #%d", e.Descriptor)
	case cpool.ConstantDynamic:
		return fmt.Sprintf("Dynamic bsm=%d #%d", e.BootstrapMethod, e.NameAndType)
	case cpool.ConstantInvokeDynamic:
		return fmt.Sprintf("InvokeDynamic bsm=%d #%d", e.BootstrapMethod, e.NameAndType)
	case cpool.ConstantModule:
		return fmt.Sprintf("Module #%d", e.Name)
	case cpool.ConstantPackage:
		return fmt.Sprintf("Package #%d", e.Name)
	default:
		return fmt.Sprintf("tag %d", entry.Tag())
	}
}

func dumpFields(p *printer, class *classfile.Class, pool *cpool.Pool) error {
	fields, err := class.Fields()
	if err != nil {
		return err
	}
	if fields.Count() == 0 {
		return nil
	}
	fmt.Printf("\n%s\n", p.heading.Render("Fields:"))
	it := fields.Iter()
	for it.Next() {
		field := it.Value()
		name, err := pool.Retrieve(field.Name)
		if err != nil {
			return err
		}
		desc, err := pool.Retrieve(field.Descriptor)
		if err != nil {
			return err
		}
		fmt.Printf("  %s %s %s\n",
			p.dim.Render(accessString(field.AccessFlags)),
			p.name.Render(name.String()), desc.String())
	}
	return it.Err()
}

func dumpMethods(p *printer, class *classfile.Class, pool *cpool.Pool, showCode bool) error {
	methods, err := class.Methods()
	if err != nil {
		return err
	}
	if methods.Count() == 0 {
		return nil
	}
	fmt.Printf("\n%s\n", p.heading.Render("Methods:"))
	it := methods.Iter()
	for it.Next() {
		method := it.Value()
		name, err := pool.Retrieve(method.Name)
		if err != nil {
			return err
		}
		desc, err := pool.Retrieve(method.Descriptor)
		if err != nil {
			return err
		}
		fmt.Printf("  %s %s%s\n",
			p.dim.Render(accessString(method.AccessFlags)),
			p.name.Render(name.String()), desc.String())

		attrs := method.Attributes().Iter()
		for attrs.Next() {
			attr := attrs.Value()
			content, err := attr.ReadContent(pool)
			if err != nil {
				continue // unknown attributes keep their raw bytes
			}
			code, ok := content.(classfile.Code)
			if !ok {
				continue
			}
			fmt.Printf("    Code: stack=%d locals=%d (%d bytes)\n",
				code.MaxStack, code.MaxLocals, len(code.RawCode()))
			if showCode {
				if err := dumpCode(p, code); err != nil {
					return err
				}
			}
		}
		if err := attrs.Err(); err != nil {
			return err
		}
	}
	return it.Err()
}

func dumpCode(p *printer, code classfile.Code) error {
	insns := code.RawInstructions()
	for insns.Next() {
		insn := insns.Value()
		fmt.Printf("      %s %#02x% x\n",
			p.dim.Render(fmt.Sprintf("%4d:", insn.Offset)), insn.Opcode, insn.Bytes[1:])
	}
	return insns.Err()
}

func dumpAttributes(p *printer, class *classfile.Class, pool *cpool.Pool) error {
	attrs, err := class.Attributes()
	if err != nil {
		return err
	}
	if attrs.Count() == 0 {
		return nil
	}
	fmt.Printf("\n%s\n", p.heading.Render("Attributes:"))
	it := attrs.Iter()
	for it.Next() {
		attr := it.Value()
		name, err := pool.Retrieve(attr.Name)
		if err != nil {
			return err
		}
		fmt.Printf("  %s %s\n", name.String(), attributeSummary(&attr, pool))
	}
	return it.Err()
}

func attributeSummary(attr *classfile.Attribute, pool *cpool.Pool) string {
	content, err := attr.ReadContent(pool)
	if err != nil {
		return fmt.Sprintf("(%d raw bytes)", len(attr.Content()))
	}
	switch c := content.(type) {
	case classfile.SourceFile:
		if file, err := pool.Retrieve(c.File); err == nil {
			return file.String()
		}
	case classfile.SourceDebugExtension:
		return fmt.Sprintf("(%d chars)", len(c.Content.String()))
	}
	return ""
}

func accessString(f classfile.AccessFlags) string {
	var parts []string
	for _, known := range []struct {
		flag classfile.AccessFlags
		name string
	}{
		{classfile.AccPublic, "public"},
		{classfile.AccPrivate, "private"},
		{classfile.AccProtected, "protected"},
		{classfile.AccStatic, "static"},
		{classfile.AccFinal, "final"},
		{classfile.AccAbstract, "abstract"},
		{classfile.AccInterface, "interface"},
		{classfile.AccEnum, "enum"},
	} {
		if f.Has(known.flag) {
			parts = append(parts, known.name)
		}
	}
	if len(parts) == 0 {
		return "package-private"
	}
	return strings.Join(parts, " ")
}
