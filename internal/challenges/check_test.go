package challenges

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/markup"
)

func TestCheckListsMissingKeywords(t *testing.T) {
	res := Check(ModePython, "for i in range(10):\n    print(i)", []string{"for", "range", "while", " "})
	require.False(t, res.Passed)
	require.Equal(t, []string{"while"}, res.Missing)

	res = Check(ModePython, "for x in y: print(x)", []string{"for", "print"})
	require.True(t, res.Passed)
	require.Empty(t, res.Missing)

	require.True(t, Check(ModeCSS, "", nil).Passed)
}

func TestFeedback(t *testing.T) {
	kws := []string{"display: flex", "justify-content: center"}
	res := Check(ModeCSS, ".box { display: flex; }", kws)
	html, err := markup.String(context.Background(), Feedback(res, kws, ""))
	require.NoError(t, err)
	require.Contains(t, html, `data-check-passed="false"`)
	require.Contains(t, html, "Try using: justify-content: center")

	res = Check(ModePython, "print('hi')", []string{"print"})
	html, err = markup.String(context.Background(), Feedback(res, []string{"print"}, "Hello printed!"))
	require.NoError(t, err)
	require.Contains(t, html, `data-check-passed="true"`)
	require.Contains(t, html, "Hello printed!")
}
