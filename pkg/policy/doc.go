// Package policy enforces the scope-boundary on converter options using
// Open Policy Agent (OPA) and the Rego policy language.
//
// The converter option vocabulary is fixed by design: format,
// max_width/max_height, scale, aspect, gravity (a named position),
// quality (0-100), watermark with a named position and opacity in
// [0.0, 1.0], and an integer margin. This is enforced by convention -
// a converter that ignores its declared options can still do whatever
// it wants with the bytes it's handed - but callers and plugin authors
// get a uniform, pluggable place to catch option misuse before it
// reaches a converter.
//
// # Architecture
//
// The package has three parts:
//
//  1. Engine - compiles and evaluates Rego policies against an options bag
//  2. Loader - loads custom policies from files, directories, and bundles
//  3. Types - Policy, Violation, Result
//
// # Usage
//
//	logger := zerolog.New(os.Stdout)
//	eng, err := policy.NewEngine(logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := eng.Evaluate(ctx, options, "image.resize")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Allowed {
//	    for _, v := range result.Violations {
//	        fmt.Printf("policy %s: %s\n", v.Policy, v.Message)
//	    }
//	}
//
// Loading custom policies:
//
//	err = eng.LoadPolicies(ctx, []string{"/etc/xmute/policies"})
//
// # Built-in Policies
//
//  1. known-options - rejects option keys and named enum values outside the vocabulary
//  2. geometry-range - enforces range/positivity on quality, scale and pixel dimensions
//  3. watermark-bounds - constrains watermark_opacity to [0.0, 1.0]
//
// # Custom Policies
//
// Custom policies are Rego modules whose deny rule receives the options
// bag as input.options:
//
//	package house.policies.no_upscale
//
//	import rego.v1
//
//	deny contains violation if {
//	    input.options.scale > 1
//	    violation := {
//	        "message": "upscaling is not permitted by house policy",
//	        "severity": "error",
//	        "key": "scale",
//	    }
//	}
//
// # Hot Reload
//
// The loader can watch policy directories and trigger a reload on
// change:
//
//	loader := policy.NewLoader(logger)
//	err = loader.Watch(ctx, paths, func(policies []policy.Policy) error {
//	    return eng.LoadPolicies(ctx, paths)
//	})
package policy
