// Package lib provides a Go SDK to set up pack environments and run pack actions
// programmatically, without shelling out to the packrun CLI binary.
//
// # Quick Start
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Install the pack dependencies in its own environment.
//	env, err := client.Setup(ctx, "test_library_dependencies")
//
//	// Run an action resolving libraries from the pack environment first.
//	exec, err := client.Run(ctx, lib.RunOpts{
//	    Pack:       "test_library_dependencies",
//	    EntryPoint: "get_library_path.py",
//	    Params:     map[string]any{"module": "six"},
//	})
//	fmt.Println(exec.Result)
//
// # Sandboxing
//
// Every pack gets an isolated dependency environment under
// <BasePath>/virtualenvs/<pack>. Sandboxed runs resolve libraries from the pack
// environment before the platform-global locations. Runs with
// [RunOpts].DisableSandbox only see the global locations.
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: Pack, environment or execution does not exist.
//   - [ErrAlreadyExists]: Resource with the same ID already exists.
//   - [ErrNotValid]: Invalid input.
//
// When an action fails, [Client.Run] returns the stored [Execution] together with
// the error. [Execution].ErrorKind tells why it failed.
//
// # Metrics
//
// Set [Config].MetricsRegisterer to record Prometheus metrics of the environment
// builds and action executions.
//
// # Thread Safety
//
// A [Client] is safe for concurrent use from multiple goroutines. Environment
// builds of the same pack are serialized.
package lib
