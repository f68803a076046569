package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reviewbot/prr/internal/diff"
)

const samplePatch = `@@ -1,4 +1,5 @@
 import os
+import sys
 
 def main():
-    print("hi")
+    print("hello")
@@ -20,2 +21,3 @@ def helper():
     pass
+    return None
`

func TestNewSideLinesCoversAdditionsAndContext(t *testing.T) {
	lines := diff.NewSideLines(samplePatch)

	// First hunk spans new lines 1-5.
	for n := 1; n <= 5; n++ {
		assert.True(t, lines.Contains(n), "line %d should be in the diff", n)
	}
	// Second hunk spans new lines 21-23.
	assert.True(t, lines.Contains(21))
	assert.True(t, lines.Contains(22))

	// The gap between hunks is not commentable.
	assert.False(t, lines.Contains(10))
	assert.False(t, lines.Contains(100))
}

func TestNewSideLinesSkipsDeletions(t *testing.T) {
	patch := "@@ -1,2 +1,1 @@\n-removed\n kept\n"
	lines := diff.NewSideLines(patch)

	assert.True(t, lines.Contains(1))
	assert.False(t, lines.Contains(2))
}

func TestNewSideLinesEmptyPatch(t *testing.T) {
	lines := diff.NewSideLines("")

	assert.Empty(t, lines)
	assert.False(t, lines.Contains(1))
}

func TestNewSideLinesIgnoresFileHeaders(t *testing.T) {
	patch := `diff --git a/f.go b/f.go
index 1111111..2222222 100644
--- a/f.go
+++ b/f.go
@@ -1,1 +1,2 @@
 package f
+var x = 1
\ No newline at end of file
`
	lines := diff.NewSideLines(patch)

	assert.True(t, lines.Contains(1))
	assert.True(t, lines.Contains(2))
	assert.Len(t, lines, 2)
}

func TestNewSideLinesMalformedHeader(t *testing.T) {
	lines := diff.NewSideLines("@@ garbage @@\n+added\n")

	assert.Empty(t, lines)
}
