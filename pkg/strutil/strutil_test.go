package strutil

import (
	"testing"

	. "src.tapec.sh/pkg/tt"
)

func TestTitle(t *testing.T) {
	Test(t, Title,
		Args("").Rets(""),
		Args("parse error").Rets("Parse error"),
		Args("\xf0").Rets("\xf0"),
		Args("FOO").Rets("FOO"),
	)
}

func TestSplitList(t *testing.T) {
	Test(t, SplitList,
		Args("").Rets([]string(nil)),
		Args("c").Rets([]string{"c"}),
		Args("c, rust,,ir ").Rets([]string{"c", "rust", "ir"}),
	)
}
