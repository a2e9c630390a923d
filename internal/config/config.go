// Package config collects the compiler core's tunables into one struct
// populated from ORUS_* environment variables, for batch/CI invocations
// that configure the compiler as a library rather than through CLI flags.
package config

import "github.com/caarlos0/env/v6"

// Compiler holds the knobs spec.md §9's Design Notes call out as
// implementation choices rather than language semantics: recursion depth,
// register file size, indent width, and which optimizer passes run. Only
// LogLevel is read (by internal/maincmd); the parser, lexer, register
// allocator and optimizer use their own fixed settings and do not consult
// the other fields.
type Compiler struct {
	// MaxRecursionDepth names the parser's expression/statement recursion
	// cap (spec.md §7's "expression too complex" diagnostic); the parser
	// applies its own constant limit of 1000 instead.
	MaxRecursionDepth int `env:"ORUS_MAX_RECURSION_DEPTH" envDefault:"250"`

	// RegisterFileSize names the number of registers spec.md §3.6 allocates
	// per function; lang/regalloc uses its own fixed 256.
	RegisterFileSize int `env:"ORUS_REGISTER_FILE_SIZE" envDefault:"256"`

	// IndentWidth names the column width one tab counts for (spec.md §6.3);
	// the lexer uses its own fixed width of 4.
	IndentWidth int `env:"ORUS_INDENT_WIDTH" envDefault:"4"`

	// EnableConstantFolding and EnableLICM name the two optimizer passes;
	// the optimizer runs both whenever it runs (the CLI's --no-optimize flag
	// skips it entirely).
	EnableConstantFolding bool `env:"ORUS_ENABLE_CONST_FOLD" envDefault:"true"`
	EnableLICM            bool `env:"ORUS_ENABLE_LICM" envDefault:"true"`

	// LogLevel is parsed by the CLI into a logrus.Level; kept as a string
	// here so this package does not need to import logrus just to validate
	// it.
	LogLevel string `env:"ORUS_LOG_LEVEL" envDefault:"info"`
}

// Load reads a Compiler config from the environment, applying envDefault
// tags for anything unset. No CLI flag overrides the result.
func Load() (Compiler, error) {
	var c Compiler
	if err := env.Parse(&c); err != nil {
		return Compiler{}, err
	}
	return c, nil
}
