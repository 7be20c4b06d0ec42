package stdio_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/stdiofile/pkg/stdio"
)

func Test_ParseMode_Accepts_Conventional_Modes(t *testing.T) {
	t.Parallel()

	type caps struct {
		Read, Write, Append, Truncate, Binary bool
	}

	testCases := []struct {
		mode string
		want caps
	}{
		{mode: "r", want: caps{Read: true}},
		{mode: "rb", want: caps{Read: true, Binary: true}},
		{mode: "r+", want: caps{Read: true, Write: true}},
		{mode: "r+b", want: caps{Read: true, Write: true, Binary: true}},
		{mode: "rb+", want: caps{Read: true, Write: true, Binary: true}},
		{mode: "w", want: caps{Write: true, Truncate: true}},
		{mode: "wx", want: caps{Write: true, Truncate: true}},
		{mode: "w+bx", want: caps{Read: true, Write: true, Truncate: true, Binary: true}},
		{mode: "a", want: caps{Write: true, Append: true}},
		{mode: "a+", want: caps{Read: true, Write: true, Append: true}},
		{mode: "ab", want: caps{Write: true, Append: true, Binary: true}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.mode, func(t *testing.T) {
			t.Parallel()

			m, err := stdio.ParseMode(testCase.mode)
			if err != nil {
				t.Fatalf("ParseMode(%q): %v", testCase.mode, err)
			}

			got := caps{
				Read:     m.CanRead(),
				Write:    m.CanWrite(),
				Append:   m.Append(),
				Truncate: m.Truncate(),
				Binary:   m.Binary(),
			}

			if diff := cmp.Diff(testCase.want, got); diff != "" {
				t.Fatalf("ParseMode(%q) mismatch (-want +got):\n%s", testCase.mode, diff)
			}

			if got, want := m.String(), testCase.mode; got != want {
				t.Fatalf("String()=%q, want %q", got, want)
			}
		})
	}
}

func Test_ParseMode_Returns_ErrInvalidMode_When_Mode_Is_Malformed(t *testing.T) {
	t.Parallel()

	for _, mode := range []string{"", "x", "rw", "r++", "rbb", "rx", "ax", "wxx", "w+t", "R"} {
		if _, err := stdio.ParseMode(mode); !errors.Is(err, stdio.ErrInvalidMode) {
			t.Errorf("ParseMode(%q) err=%v, want ErrInvalidMode", mode, err)
		}
	}
}

func Test_MustParseMode_Panics_When_Mode_Is_Malformed(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatalf("MustParseMode did not panic")
		}
	}()

	stdio.MustParseMode("nope")
}
