package cpp

import (
	"path"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultContentCache bounds the number of header bodies kept in memory.
const defaultContentCache = 256

// cachedInclude records what was learned about one resolved include file:
// the include guard discovered when the whole file was seen, and whether
// it said #pragma once. Either lets a later #include of the same path be
// skipped without reopening it.
type cachedInclude struct {
	path  string
	guard SymID // guard macro, NoSym until detected
	once  bool
}

type includeCache struct {
	byPath  map[string]*cachedInclude
	content *lru.Cache[string, []byte]
}

func newIncludeCache(limit int) (*includeCache, error) {
	if limit <= 0 {
		limit = defaultContentCache
	}
	content, err := lru.New[string, []byte](limit)
	if err != nil {
		return nil, err
	}
	return &includeCache{
		byPath:  make(map[string]*cachedInclude),
		content: content,
	}, nil
}

func (c *includeCache) entry(path string) *cachedInclude {
	if e, ok := c.byPath[path]; ok {
		return e
	}
	e := &cachedInclude{path: path, guard: NoSym}
	c.byPath[path] = e
	return e
}

// readInclude returns the contents of a resolved include file, serving
// repeats from the content cache.
func (pp *Preprocessor) readInclude(path string) ([]byte, bool) {
	if data, ok := pp.includes.content.Get(path); ok {
		return data, true
	}
	data, err := pp.fs.ReadFile(path)
	if err != nil {
		return nil, false
	}
	pp.includes.content.Add(path, data)
	return data, true
}

// knownFile avoids a file-system probe when the path was read before.
func (pp *Preprocessor) knownFile(path string) bool {
	if pp.includes.content.Contains(path) {
		return true
	}
	return pp.fs.Exists(path)
}

// searchSlots is the number of positions in the include search order:
// slot 0 is the including file's directory, then the -I directories,
// then the system directories.
func (pp *Preprocessor) searchSlots() int {
	return 1 + len(pp.cfg.IncludePaths) + len(pp.cfg.SysIncludePaths)
}

// searchDir maps a slot to a directory. Slot 0 only answers for "..."
// includes; <...> includes skip it but keep the same numbering, so that
// #include_next positions stay comparable across both forms.
func (pp *Preprocessor) searchDir(slot int, quoted bool, from *sourceFile) (string, bool) {
	if slot == 0 {
		if !quoted || from == nil {
			return "", false
		}
		return path.Dir(from.path), true
	}
	slot--
	if slot < len(pp.cfg.IncludePaths) {
		return pp.cfg.IncludePaths[slot], true
	}
	slot -= len(pp.cfg.IncludePaths)
	if slot < len(pp.cfg.SysIncludePaths) {
		return pp.cfg.SysIncludePaths[slot], true
	}
	return "", false
}

// resolveInclude maps an include name to a path the file system knows,
// returning the slot it was found in. next starts the search after the
// slot the current file itself came from, which is what #include_next
// wants; in the primary source file it degenerates to a plain search.
func (pp *Preprocessor) resolveInclude(name string, quoted, next bool, from *sourceFile) (string, int, bool) {
	if path.IsAbs(name) {
		if pp.knownFile(name) {
			return name, 0, true
		}
		return "", 0, false
	}
	start := 0
	if next && from != nil {
		start = from.searchIdx + 1
	}
	if start < 0 {
		start = 0
	}
	for slot := start; slot < pp.searchSlots(); slot++ {
		dir, ok := pp.searchDir(slot, quoted, from)
		if !ok {
			continue
		}
		full := path.Join(dir, name)
		if pp.knownFile(full) {
			return full, slot, true
		}
	}
	return "", 0, false
}

// hasInclude answers __has_include and __has_include_next.
func (pp *Preprocessor) hasInclude(name string, quoted, next bool) bool {
	_, _, ok := pp.resolveInclude(name, quoted, next, pp.stack)
	return ok
}

// pushInclude stacks a resolved include file over the current one. Files
// remembered as once-only or guarded by a macro that is defined are
// skipped without being reopened.
func (pp *Preprocessor) pushInclude(name string, quoted, next bool, at Token) {
	if pp.depth+1 >= pp.cfg.MaxIncludeDepth {
		pp.errorAt(ErrInclude, at, "#include recursion too deep")
		return
	}
	full, slot, ok := pp.resolveInclude(name, quoted, next, pp.stack)
	if !ok {
		pp.errorAt(ErrInclude, at, "include file %q not found", name)
		return
	}
	ent := pp.includes.entry(full)
	if ent.once {
		return
	}
	if ent.guard != NoSym && pp.macros.IsDefined(ent.guard) {
		return
	}
	data, ok := pp.readInclude(full)
	if !ok {
		pp.errorAt(ErrInclude, at, "include file %q not found", name)
		return
	}
	pp.pushSource(full, data, slot, ent)
}

// headerNameFromTokens rebuilds a header name from ordinary tokens, for
// computed includes and __has_include operands. It accepts a single
// string literal or a < ... > token run.
func headerNameFromTokens(ts TokenString) (string, bool, bool) {
	if len(ts) == 1 && ts[0].Kind == STRING {
		text := ts[0].Text
		if len(text) >= 3 && text[0] == '"' && text[len(text)-1] == '"' {
			return text[1 : len(text)-1], true, true
		}
		return "", false, false
	}
	if len(ts) >= 3 && ts[0].Kind == LESS && ts[len(ts)-1].Kind == GREATER {
		var sb strings.Builder
		for i := 1; i < len(ts)-1; i++ {
			if i > 1 && ts[i].Space {
				sb.WriteByte(' ')
			}
			sb.WriteString(ts[i].Spelling())
		}
		if sb.Len() == 0 {
			return "", false, false
		}
		return sb.String(), false, true
	}
	return "", false, false
}
