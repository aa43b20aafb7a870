package compiler

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntfwc/ZeldaClassic/compiler/asm"
	"github.com/ntfwc/ZeldaClassic/compiler/back"
	"github.com/ntfwc/ZeldaClassic/compiler/diag"
	"github.com/ntfwc/ZeldaClassic/compiler/zs"
)

const swordSrc = `
import "lib/math.z"

int counter = 1;

item script Sword {
	void run(int power) {
		this->Power = twice(power);
		counter = counter + 1;
	}
}

ffc script Mover {
	void run() {
		while (true) {
			this->X = this->X + 1;
			Waitframe();
		}
	}
}
`

const mathLib = `
float twice(float x) {
	return add(x, x);
}

float add(float a, float b) {
	return a + b;
}

float unused(float x) {
	return x * x * x;
}
`

func compile(t *testing.T, files map[string]string, cfg Config) (*back.Scripts, error) {
	t.Helper()

	fsys := fstest.MapFS{}
	for name, text := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(text)}
	}

	cfg.FS = fsys

	return Compile(context.Background(), cfg, "main.z")
}

func checkResolved(t *testing.T, code []asm.Instr) {
	t.Helper()

	for i, x := range code {
		x.Refs(func(p int) {
			if assert.True(t, p >= 1 && p <= len(code), "instr %d: %v", i, x) {
				assert.True(t, code[p-1].HasLabel(), "instr %d: %v", i, x)
			}
		})
	}
}

func TestCompileProgram(t *testing.T) {
	out, err := compile(t, map[string]string{
		"main.z":     swordSrc,
		"lib/math.z": mathLib,
	}, Config{})
	require.NoError(t, err)

	assert.Equal(t, map[string]zs.ScriptKind{
		back.InitScript: zs.GlobalScript,
		"Sword":         zs.ItemScript,
		"Mover":         zs.FFCScript,
	}, out.Kinds)

	for name, code := range out.Code {
		t.Run(name, func(t *testing.T) {
			checkResolved(t, code)
		})
	}

	sword := out.Code["Sword"]
	require.NotEmpty(t, sword)
	assert.Equal(t, asm.PushR(asm.D0), sword[0], "run argument")

	// counter = 1
	assert.Equal(t, []asm.Instr{
		asm.SetV(asm.EXP1, 0),
		asm.SetV(asm.EXP1, 10000),
		asm.SetR(asm.GD(0), asm.EXP1),
	}, out.Code[back.InitScript])
}

func TestCompileUnreachable(t *testing.T) {
	with, err := compile(t, map[string]string{
		"main.z":     swordSrc,
		"lib/math.z": mathLib,
	}, Config{})
	require.NoError(t, err)

	without, err := compile(t, map[string]string{
		"main.z":     swordSrc,
		"lib/math.z": strings.Split(mathLib, "float unused")[0],
	}, Config{})
	require.NoError(t, err)

	for name := range with.Code {
		assert.Len(t, with.Code[name], len(without.Code[name]), "%v", name)
	}
}

func TestCompileDeterministic(t *testing.T) {
	files := map[string]string{
		"main.z":     swordSrc,
		"lib/math.z": mathLib,
	}

	a, err := compile(t, files, Config{})
	require.NoError(t, err)

	b, err := compile(t, files, Config{})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestCompileDeterministicProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("same input gives the same scripts", prop.ForAll(
		func(vals []int) bool {
			var b strings.Builder

			for i, v := range vals {
				fmt.Fprintf(&b, "int g%d = %d;\n", i, v)
			}

			b.WriteString("global script S { void run() { float s = 0;")

			for i := range vals {
				fmt.Fprintf(&b, " if (g%d > s) s = s + g%d;", i, i)
			}

			b.WriteString(" } }\n")

			files := map[string]string{"main.z": b.String()}

			x, err := compile(t, files, Config{})
			if err != nil {
				return false
			}

			y, err := compile(t, files, Config{})
			if err != nil {
				return false
			}

			return assert.ObjectsAreEqual(x, y)
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}

func TestCompileGlobalLimit(t *testing.T) {
	src := func(n int) string {
		var b strings.Builder

		for i := 0; i < n; i++ {
			fmt.Fprintf(&b, "int g%d;\n", i)
		}

		b.WriteString("global script S { void run() { } }\n")

		return b.String()
	}

	out, err := compile(t, map[string]string{"main.z": src(asm.NumGlobalRegs)}, Config{})
	require.NoError(t, err)
	assert.Contains(t, out.Code, "S")

	_, err = compile(t, map[string]string{"main.z": src(asm.NumGlobalRegs + 1)}, Config{})
	assert.ErrorIs(t, err, diag.TooManyGlobal)
}

func TestCompileImportLimit(t *testing.T) {
	chain := func(depth int) map[string]string {
		files := map[string]string{}

		name := "main.z"

		for i := 1; i <= depth; i++ {
			next := fmt.Sprintf("f%d.z", i)
			files[name] = fmt.Sprintf("import %q\n", next)
			name = next
		}

		files[name] = "global script S { void run() { } }\n"

		return files
	}

	_, err := compile(t, chain(2), Config{RecursionLimit: 3})
	assert.NoError(t, err)

	_, err = compile(t, chain(3), Config{RecursionLimit: 3})
	assert.ErrorIs(t, err, diag.ImportRecursion)

	_, err = compile(t, map[string]string{"main.z": `import "main.z"`}, Config{RecursionLimit: -1})
	assert.ErrorIs(t, err, diag.ImportRecursion)
}

func TestCompileInitScript(t *testing.T) {
	out, err := compile(t, map[string]string{
		"main.z": `
int a = 2;

global script Init {
	void run() {
		a = 3;
	}
}
`,
	}, Config{})
	require.NoError(t, err)

	boot := out.Code[back.InitScript]
	require.NotEmpty(t, boot)

	// initializer, then the jump into Init's run
	require.GreaterOrEqual(t, len(boot), 4)
	assert.Equal(t, asm.SetR(asm.GD(0), asm.EXP1), boot[2])

	jump := boot[3]
	require.Equal(t, asm.GOTO, jump.Op)

	checkResolved(t, boot)

	assert.Equal(t, asm.SETV, boot[jump.A.Value-1].Op)

	assert.Contains(t, boot, asm.Quit(), "run function embedded")
	assert.Contains(t, out.Code, "Init")
}

func TestCompileDiagnostics(t *testing.T) {
	_, err := compile(t, map[string]string{
		"main.z": `
global script S {
	void run() {
		x = 1;
		nope(2);
	}
}

item script S {
	void run() { }
}
`,
	}, Config{})
	require.Error(t, err)

	var errs diag.Errors
	require.ErrorAs(t, err, &errs)

	codes := map[diag.Code]bool{}
	for _, d := range errs {
		codes[d.Code] = true
	}

	assert.Equal(t, map[diag.Code]bool{
		diag.ScriptRedef:    true,
		diag.UndeclaredVar:  true,
		diag.UndeclaredFunc: true,
	}, codes)
}

func TestCompileMissingSource(t *testing.T) {
	_, err := compile(t, map[string]string{}, Config{})
	assert.ErrorIs(t, err, diag.CantOpenSource)

	_, err = compile(t, map[string]string{"main.z": "int = ;"}, Config{})
	assert.ErrorIs(t, err, diag.Syntax)
}
