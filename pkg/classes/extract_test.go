package classes

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollector_scanReader(t *testing.T) {
	tests := []struct {
		name        string
		dialect     Dialect
		input       string
		wantObjc    []string
		wantClasses []string
		wantStructs []string
	}{
		{
			name:    "objc_interfaces",
			dialect: DialectObjectiveC,
			input: `#import <UIKit/UIKit.h>

@interface HomeViewController : UIViewController
@property (nonatomic) NSString *title;
@end

@interface HomeViewController ()
@end

@interface   DetailCell:UITableViewCell
@end`,
			wantObjc:    []string{"DetailCell", "HomeViewController"},
			wantClasses: []string{},
			wantStructs: []string{},
		},
		{
			name:    "swift_classes_and_structs",
			dialect: DialectSwift,
			input: `import UIKit

final class ProfileView: UIView {
    struct Layout {
        let inset: CGFloat
    }
}

class Plain {}

struct Box<T> {
    var value: T
}

struct Token(
`,
			wantObjc:    []string{},
			wantClasses: []string{"ProfileView"},
			wantStructs: []string{"Box", "Layout", "Token"},
		},
		{
			name:        "no_declarations",
			dialect:     DialectSwift,
			input:       `let x = 1`,
			wantObjc:    []string{},
			wantClasses: []string{},
			wantStructs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCollector()
			require.NoError(t, c.scanReader(strings.NewReader(tt.input), tt.dialect))

			objs := c.objects()
			require.Equal(t, tt.wantObjc, objs.ObjectiveC)
			require.Equal(t, tt.wantClasses, objs.Swift.Classes)
			require.Equal(t, tt.wantStructs, objs.Swift.Structs)
		})
	}
}

func TestDialectOf(t *testing.T) {
	require.Equal(t, DialectObjectiveC, DialectOf("A/B.h"))
	require.Equal(t, DialectObjectiveC, DialectOf("A/B.m"))
	require.Equal(t, DialectSwift, DialectOf("A/B.swift"))
	require.Equal(t, DialectUnknown, DialectOf("A/B.storyboard"))
	require.Equal(t, DialectUnknown, DialectOf("A/B.mm"))
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"A.h":           "@interface A : NSObject\n@end",
		"A.m":           "@interface A : NSObject\n@end",
		"B.swift":       "class B: NSObject {}\nstruct C {}",
		"Main.xib":      "@interface Ignored : NSObject",
		"missing.swift": "",
	}
	var paths []string
	for name, content := range files {
		p := filepath.Join(dir, name)
		if name != "missing.swift" {
			require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		}
		paths = append(paths, p)
	}

	objs := Extract(paths)
	require.Equal(t, &Objects{
		ObjectiveC: []string{"A"},
		Swift: SwiftObject{
			Classes: []string{"B"},
			Structs: []string{"C"},
		},
	}, objs)
}
