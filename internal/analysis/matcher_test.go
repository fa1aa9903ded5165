package analysis

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsUsed(t *testing.T) {
	tests := []struct {
		name     string
		resource string
		content  string
		want     bool
	}{
		{"literal match", "icon", "the icon is here", true},
		{"no match", "icon", "no match", false},
		{"case sensitive", "Icon", "the icon is here", false},
		{"digit name literal", "icon_2", `UIImage(named: "icon_2")`, true},
		{"digit name fragments", "icon_2", "we load icon then append 2 separately", true},
		{"digit name missing fragment", "tab_home_1", "tab plus index", false},
		{"digit name all fragments", "tab_home_1", `"tab_home_\(index)"`, true},
		{"digit inside word", "banner2x", "banner and x", true},
		{"hyphen separated", "bg-3-dark", "bg dark", true},
		{"all digits no content", "42", "", false},
		{"all digits literal", "42", "answer 42", true},
		{"digits and separators only", "1_2-3", "1 2 3", false},
		{"no digits no fragment fallback", "icon_home", "icon home", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsUsed(tt.resource, tt.content))
			require.Equal(t, tt.want, NewMatcher().IsUsed(tt.resource, tt.content))
		})
	}
}

func TestMatcher_Fragments(t *testing.T) {
	m := NewMatcher()

	require.Equal(t, []string{"icon"}, m.Fragments("icon_2"))
	require.Equal(t, []string{"tab", "home"}, m.Fragments("tab_home_12"))
	require.Equal(t, []string{"a", "b"}, m.Fragments("--a12b__"))
	require.Empty(t, m.Fragments("42"))
	require.Equal(t, []string{"plain"}, m.Fragments("plain"))
}

func TestMatcher_FragmentCaching(t *testing.T) {
	m := NewMatcher()

	first := m.Fragments("cell_bg_3")
	for range 10 {
		require.Equal(t, first, m.Fragments("cell_bg_3"))
	}
	require.Equal(t, 1, m.fragments.Size())
}

func TestMatcher_Concurrent(t *testing.T) {
	m := NewMatcher()
	names := []string{"icon_1", "icon_2", "banner3", "logo", "42"}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, n := range names {
				_ = m.IsUsed(n, "icon banner logo")
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 4, m.fragments.Size())
}

func TestMatcher_FragmentsComputedOnce(t *testing.T) {
	m := NewMatcher()

	const callers = 16
	got := make([][]string, callers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			got[i] = m.Fragments("row_7_selected")
		}()
	}
	close(start)
	wg.Wait()

	// Every caller sees the single cached slice.
	for _, frags := range got {
		require.Equal(t, []string{"row", "selected"}, frags)
		require.Same(t, &got[0][0], &frags[0])
	}
	require.Equal(t, 1, m.fragments.Size())
}
