package policy

import "time"

// GetBuiltinPolicies returns the built-in scope-boundary policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		knownOptionsPolicy(),
		geometryRangePolicy(),
		watermarkPolicy(),
	}
}

// knownOptionsPolicy rejects any option key outside the fixed vocabulary
// and any named value (gravity, watermark position) outside its enum.
func knownOptionsPolicy() Policy {
	now := time.Now()
	return Policy{
		Name:        "known-options",
		Description: "Rejects option keys and named enum values outside the fixed conversion option vocabulary",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"vocabulary"},
		CreatedAt:   now,
		UpdatedAt:   now,
		Rego: `package xmute.policies.known_options

import rego.v1

allowed_keys := {
	"format", "max_width", "max_height", "scale", "aspect",
	"gravity", "quality", "watermark", "watermark_position",
	"watermark_opacity", "margin",
}

allowed_gravity := {
	"top-left", "top", "top-right",
	"left", "center", "right",
	"bottom-left", "bottom", "bottom-right",
}

deny contains violation if {
	some key, _ in input.options
	not key in allowed_keys
	violation := {
		"message": sprintf("unknown option %q is outside the fixed conversion option vocabulary", [key]),
		"severity": "error",
		"key": key,
	}
}

deny contains violation if {
	input.options.gravity
	not input.options.gravity in allowed_gravity
	violation := {
		"message": sprintf("gravity %q is not one of the named positions", [input.options.gravity]),
		"severity": "error",
		"key": "gravity",
	}
}

deny contains violation if {
	input.options.watermark_position
	not input.options.watermark_position in allowed_gravity
	violation := {
		"message": sprintf("watermark_position %q is not one of the named positions", [input.options.watermark_position]),
		"severity": "error",
		"key": "watermark_position",
	}
}`,
	}
}

// geometryRangePolicy enforces the numeric ranges the fixed vocabulary
// assigns to quality, scale and pixel dimensions.
func geometryRangePolicy() Policy {
	now := time.Now()
	return Policy{
		Name:        "geometry-range",
		Description: "Enforces range and positivity constraints on quality, scale and pixel dimensions",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"geometry"},
		CreatedAt:   now,
		UpdatedAt:   now,
		Rego: `package xmute.policies.geometry_range

import rego.v1

deny contains violation if {
	q := input.options.quality
	not 0 <= q
	violation := {
		"message": sprintf("quality %v must be between 0 and 100", [q]),
		"severity": "error",
		"key": "quality",
	}
}

deny contains violation if {
	q := input.options.quality
	q > 100
	violation := {
		"message": sprintf("quality %v must be between 0 and 100", [q]),
		"severity": "error",
		"key": "quality",
	}
}

deny contains violation if {
	s := input.options.scale
	s <= 0
	violation := {
		"message": sprintf("scale %v must be greater than zero", [s]),
		"severity": "error",
		"key": "scale",
	}
}

deny contains violation if {
	w := input.options.max_width
	w <= 0
	violation := {
		"message": sprintf("max_width %v must be greater than zero", [w]),
		"severity": "error",
		"key": "max_width",
	}
}

deny contains violation if {
	h := input.options.max_height
	h <= 0
	violation := {
		"message": sprintf("max_height %v must be greater than zero", [h]),
		"severity": "error",
		"key": "max_height",
	}
}

deny contains violation if {
	m := input.options.margin
	m < 0
	violation := {
		"message": sprintf("margin %v must not be negative", [m]),
		"severity": "error",
		"key": "margin",
	}
}`,
	}
}

// watermarkPolicy constrains the watermark opacity option to [0.0, 1.0].
func watermarkPolicy() Policy {
	now := time.Now()
	return Policy{
		Name:        "watermark-bounds",
		Description: "Constrains watermark_opacity to [0.0, 1.0]",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"watermark"},
		CreatedAt:   now,
		UpdatedAt:   now,
		Rego: `package xmute.policies.watermark

import rego.v1

deny contains violation if {
	o := input.options.watermark_opacity
	not 0 <= o
	violation := {
		"message": sprintf("watermark_opacity %v must be between 0.0 and 1.0", [o]),
		"severity": "error",
		"key": "watermark_opacity",
	}
}

deny contains violation if {
	o := input.options.watermark_opacity
	o > 1
	violation := {
		"message": sprintf("watermark_opacity %v must be between 0.0 and 1.0", [o]),
		"severity": "error",
		"key": "watermark_opacity",
	}
}`,
	}
}
