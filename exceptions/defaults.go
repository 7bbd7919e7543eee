package exceptions

// Default returns the built-in table. Classes listed here need native
// synchronization or platform bridges the bindings cannot express; skipped
// methods are provided by the runtime or return handles that outlive their
// call.
func Default() *Table {
	return New(
		Rule{Class: "Thread", Policy: Policy{Kind: Skip}},
		Rule{Class: "Mutex", Policy: Policy{Kind: Skip}},
		Rule{Class: "Semaphore", Policy: Policy{Kind: Skip}},
		Rule{Class: "JavaClassWrapper", Policy: Policy{Kind: Skip}},
		Rule{Class: "JavaScriptBridge", Policy: Policy{Kind: Skip}},

		Rule{Class: "Object", Method: "get_instance_id", Policy: Policy{Kind: Skip}},
		Rule{Class: "Object", Method: "to_string", Policy: Policy{Kind: Skip}},
		Rule{Class: "ResourceLoader", Method: "load_threaded_get", Policy: Policy{Kind: Skip}},
		Rule{Class: "ResourceLoader", Method: "load_threaded_get_status", Policy: Policy{Kind: Skip}},
		Rule{Class: "ResourceLoader", Method: "load_threaded_request", Policy: Policy{Kind: Skip}},

		// Frees the object behind the wrapper's back.
		Rule{Class: "Object", Method: "free", Policy: Policy{Kind: Skip}},

		Rule{Class: "Object", Method: "get_class", Policy: Policy{Kind: Rename, Name: "GetClassName"}},
	)
}
