// Package classes extracts declared type names from Objective-C and Swift
// sources with regular expressions.
package classes

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
)

// Objects holds the distinct type names found across a set of files.
type Objects struct {
	ObjectiveC []string    `json:"Objective-C"`
	Swift      SwiftObject `json:"Swift"`
}

// SwiftObject groups Swift declarations by kind.
type SwiftObject struct {
	Classes []string `json:"classes"`
	Structs []string `json:"structs"`
}

// Compile patterns once at package initialization.
var (
	// @interface ClassName : SuperClass
	objcClassPattern = regexp.MustCompile(`@interface\s+(\w+)\s*:\s*\w+`)

	// class ClassName: SuperClass
	swiftClassPattern = regexp.MustCompile(`class\s+(\w+)\s*:\s*\w+`)

	// struct StructName { / ( / <
	swiftStructPattern = regexp.MustCompile(`struct\s+(\w+)\s*(?:\{|\(|<)`)
)

// Dialect is the source language of a file.
type Dialect int

const (
	DialectUnknown Dialect = iota
	DialectObjectiveC
	DialectSwift
)

// DialectOf classifies path by extension.
func DialectOf(path string) Dialect {
	switch filepath.Ext(path) {
	case ".h", ".m":
		return DialectObjectiveC
	case ".swift":
		return DialectSwift
	default:
		return DialectUnknown
	}
}

// collector accumulates names as sets before they are flattened.
type collector struct {
	objc    map[string]struct{}
	classes map[string]struct{}
	structs map[string]struct{}
}

func newCollector() *collector {
	return &collector{
		objc:    make(map[string]struct{}),
		classes: make(map[string]struct{}),
		structs: make(map[string]struct{}),
	}
}

// Extract scans every Objective-C and Swift file in files. Files of other
// types are ignored and unreadable files are logged and skipped.
func Extract(files []string) *Objects {
	c := newCollector()
	for _, file := range files {
		dialect := DialectOf(file)
		if dialect == DialectUnknown {
			continue
		}
		if err := c.scanFile(file, dialect); err != nil {
			slog.Warn("skipping unreadable source", "file", file, "error", err)
		}
	}
	return c.objects()
}

func (c *collector) scanFile(filename string, dialect Dialect) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return c.scanReader(file, dialect)
}

// scanReader matches the dialect's patterns against the whole content, since
// declarations may span lines.
func (c *collector) scanReader(r io.Reader, dialect Dialect) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	content := string(data)

	switch dialect {
	case DialectObjectiveC:
		addMatches(c.objc, objcClassPattern, content)
	case DialectSwift:
		addMatches(c.classes, swiftClassPattern, content)
		addMatches(c.structs, swiftStructPattern, content)
	}
	return nil
}

func addMatches(set map[string]struct{}, re *regexp.Regexp, content string) {
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		set[m[1]] = struct{}{}
	}
}

func (c *collector) objects() *Objects {
	return &Objects{
		ObjectiveC: sortedKeys(c.objc),
		Swift: SwiftObject{
			Classes: sortedKeys(c.classes),
			Structs: sortedKeys(c.structs),
		},
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := slices.Sorted(maps.Keys(set))
	if keys == nil {
		return []string{}
	}
	return keys
}
