// Package relpath computes relative links between slash-delimited
// paths using string manipulation only. It never touches the
// filesystem and is total over all string inputs.
package relpath

import "strings"

// Segment splits a path on "/" and drops empty components, so leading,
// trailing, and repeated slashes collapse. Segment("") and
// Segment("/") are both nil.
func Segment(path string) []string {
	if path == "" {
		return nil
	}

	parts := strings.Split(path, "/")
	segs := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		segs = append(segs, part)
	}
	if len(segs) == 0 {
		return nil
	}
	return segs
}

// Dirname returns the segments of the directory containing path. The
// path is treated as naming a file, so the last segment is dropped; a
// path with at most one segment has no parent and yields nil.
func Dirname(path string) []string {
	segs := Segment(path)
	if len(segs) <= 1 {
		return nil
	}
	return segs[:len(segs)-1]
}

// Normalize resolves "." and ".." against a stack. A ".." that cannot
// cancel a preceding plain segment is kept as an above-root marker, so
// the result is always a run of ".." markers followed by plain
// segments and no input can fail.
func Normalize(segs []string) []string {
	stack := make([]string, 0, len(segs))
	for _, seg := range segs {
		switch seg {
		case "", ".":
			continue
		case "..":
			if n := len(stack); n > 0 && stack[n-1] != ".." {
				stack = stack[:n-1]
			} else {
				stack = append(stack, "..")
			}
		default:
			stack = append(stack, seg)
		}
	}
	if len(stack) == 0 {
		return nil
	}
	return stack
}

// diff compares the normalized source directory with the normalized
// target. Leftover ".." markers on the target side become extra
// up-moves rather than literal output segments.
func diff(srcDir, target []string) (int, []string) {
	common := 0
	for common < len(srcDir) && common < len(target) && srcDir[common] == target[common] {
		common++
	}

	up := len(srcDir) - common
	down := target[common:]
	for len(down) > 0 && down[0] == ".." {
		up++
		down = down[1:]
	}
	return up, down
}

func format(up int, down []string) string {
	if up == 0 && len(down) == 0 {
		return ""
	}

	var b strings.Builder
	for i := 0; i < up; i++ {
		b.WriteString("../")
	}
	b.WriteString(strings.Join(down, "/"))
	return b.String()
}

// Relative returns the shortest path that reaches target when resolved
// against the directory containing source. Both arguments are abstract
// slash paths; any input, including empty strings and pure dot
// sequences, yields a defined result.
func Relative(source, target string) string {
	up, down := diff(Normalize(Dirname(source)), Normalize(Segment(target)))
	return format(up, down)
}

// Resolve appends rel to the base directory segments and normalizes
// the result. It is the inverse used by callers that need to check
// where a relative link lands.
func Resolve(baseDir []string, rel string) []string {
	joined := make([]string, 0, len(baseDir)+4)
	joined = append(joined, Normalize(baseDir)...)
	joined = append(joined, Segment(rel)...)
	return Normalize(joined)
}
