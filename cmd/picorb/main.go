// Picorb CLI - runs the embedder demo program against the dispatch core
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/picorb/picorb/manifest"
	"github.com/picorb/picorb/vm"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	name := flag.String("name", "world", "Greeting target")
	manifestDir := flag.String("manifest", ".", "Directory to search for picorb.toml")
	snapshot := flag.Bool("snapshot", false, "Save a class-tree snapshot after the run")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: picorb [options]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the Greeter demo: a host-defined class with a compiled\n")
		fmt.Fprintf(os.Stderr, "initializer and a native greet method.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  picorb                   # Greet the world\n")
		fmt.Fprintf(os.Stderr, "  picorb -name Ruby        # Greet Ruby\n")
		fmt.Fprintf(os.Stderr, "  picorb -snapshot         # Persist the class tree afterward\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	m, err := manifest.FindAndLoad(*manifestDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}

	limit := 0
	if m != nil {
		limit = m.Runtime.MemoryLimit
	}
	machine := vm.NewVMWith(vm.NewCountingAllocator(limit), vm.NewStdoutConsole())
	if m != nil && m.Runtime.MissingMethod == "raise" {
		machine.MissingMethod = vm.MissingMethodRaise
	}

	if err := defineGreeter(machine); err != nil {
		fmt.Fprintf(os.Stderr, "Error defining Greeter: %v\n", err)
		os.Exit(1)
	}

	if err := machine.Run(greeterProgram(machine, *name)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *snapshot {
		if err := saveSnapshot(machine, m); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving snapshot: %v\n", err)
			os.Exit(1)
		}
	}
}

// defineGreeter registers the demo class: a compiled initialize that
// stores its argument as @name, and a native greet that reads it back.
func defineGreeter(machine *vm.VM) error {
	greeter, err := machine.DefineClass("Greeter", nil)
	if err != nil {
		return err
	}

	nameSym := machine.Symbols.Intern("name")

	// initialize(name): @name = name
	init := &vm.Asm{}
	init.Op(vm.OpSetIV, 1, 0)
	init.Op(vm.OpReturn, 0)
	machine.DefineBytecodeMethod(greeter, "initialize", &vm.IRep{
		NLocals: 1,
		NRegs:   3,
		Code:    init.Bytes(),
		Syms:    []vm.SymID{nameSym},
	})

	machine.DefineMethod(greeter, "greet", func(machine *vm.VM, regs []vm.Value, argc int) {
		ins := regs[0].Instance()
		if ins == nil {
			machine.SetNilReturn(regs)
			return
		}
		who := ins.GetIV(machine, nameSym)
		text := "there"
		if s := who.Str(); s != nil {
			text = s.Text()
		}
		machine.Release(&who)
		machine.Console.Print("Hello, " + text + "!\n")
		machine.SetNilReturn(regs)
	})
	return nil
}

// greeterProgram assembles the top-level body:
//
//	g = Greeter.new(name)
//	g.greet
func greeterProgram(machine *vm.VM, name string) *vm.IRep {
	nameVal, err := machine.NewString(name)
	if err != nil {
		nameVal = vm.NilValue()
	}

	a := &vm.Asm{}
	a.Op(vm.OpGetConst, 1, 0) // R1 = Greeter
	a.Op(vm.OpLoadLit, 2, 0)  // R2 = name
	a.Op(vm.OpSend, 1, 1, 1)  // R1 = Greeter.new(R2)
	a.Op(vm.OpSend, 1, 2, 0)  // R1.greet
	a.Op(vm.OpStop)

	return &vm.IRep{
		NRegs: 4,
		Code:  a.Bytes(),
		Pools: []vm.Value{nameVal},
		Syms: []vm.SymID{
			machine.Symbols.Intern("Greeter"),
			machine.Symbols.Intern("new"),
			machine.Symbols.Intern("greet"),
		},
	}
}

func saveSnapshot(machine *vm.VM, m *manifest.Manifest) error {
	var store *vm.SnapshotStore
	var err error
	if m != nil && m.Snapshot.Database != "" {
		store, err = vm.NewSnapshotStore(m.Snapshot.Database)
	} else {
		store, err = vm.NewSnapshotStoreDefault()
	}
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(machine.TakeSnapshot())
}
