package server

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/chips/vm"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "chips-lsp"

var log = commonlog.GetLogger("chips.server")

// LspServer provides editor features for Chips assembly from the opcode
// catalog: completion, hover, label navigation and diagnostics.
type LspServer struct {
	cat *vm.Catalog

	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server over cat.
func NewLSP(cat *vm.Catalog) *LspServer {
	s := &LspServer{
		cat:     cat,
		docs:    make(map[string]string),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
		TextDocumentReferences: s.textDocumentReferences,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("Chips LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"."},
	}
	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true
	capabilities.ReferencesProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	log.Info("Chips LSP shutting down")
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *LspServer) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	prefix := extractPrefix(text, params.Position)
	if prefix == "" {
		return nil, nil
	}
	return s.complete(text, prefix), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	return s.hover(text, word), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	text, ok := s.document(uri)
	if !ok {
		return nil, nil
	}
	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	loc, ok := definition(uri, text, word)
	if !ok {
		return nil, nil
	}
	return []protocol.Location{loc}, nil
}

func (s *LspServer) textDocumentReferences(ctx *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	uri := params.TextDocument.URI
	text, ok := s.document(uri)
	if !ok {
		return nil, nil
	}
	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	return references(uri, text, word, params.Context.IncludeDeclaration), nil
}

// --- Catalog-backed logic ---

func (s *LspServer) complete(text, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	lowerPrefix := strings.ToLower(prefix)

	for _, op := range s.cat.Opcodes() {
		if !strings.HasPrefix(op.Name, lowerPrefix) {
			continue
		}
		kind := protocol.CompletionItemKindFunction
		if op.IsFamily() {
			kind = protocol.CompletionItemKindModule
		}
		detail := describe(op)
		name := op.Name
		items = append(items, protocol.CompletionItem{
			Label:         name,
			Kind:          &kind,
			Detail:        &detail,
			Documentation: op.Doc,
			InsertText:    &name,
		})
	}

	// Labels defined in this document
	for _, sl := range scanSource(text) {
		if sl.Label.Text == "" || !strings.HasPrefix(strings.ToLower(sl.Label.Text), lowerPrefix) {
			continue
		}
		kind := protocol.CompletionItemKindReference
		detail := fmt.Sprintf("label, line %d", sl.Line+1)
		name := sl.Label.Text
		items = append(items, protocol.CompletionItem{
			Label:      name,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &name,
		})
	}

	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items
}

func (s *LspServer) hover(text, word string) *protocol.Hover {
	var b strings.Builder
	if op, ok := s.cat.Lookup(word); ok {
		fmt.Fprintf(&b, "**%s** `%s`\n\n", op.Name, selector(op))
		if op.Doc != "" {
			b.WriteString(op.Doc)
			b.WriteString("\n\n")
		}
		if op.IsFamily() {
			n := 0
			op.Children.Each(func(*vm.Opcode) { n++ })
			fmt.Fprintf(&b, "Family of %d opcodes", n)
		} else {
			fmt.Fprintf(&b, "Operands: %s\n\nClass: %s", arity(op), op.Class)
		}
	} else if loc, ok := labelLine(text, word); ok {
		fmt.Fprintf(&b, "**%s**: label on line %d", word, loc+1)
	} else {
		return nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

func selector(op *vm.Opcode) string {
	parts := make([]string, 0, len(op.Path)+1)
	for _, c := range op.Bytes() {
		parts = append(parts, fmt.Sprintf("%02X", c))
	}
	return strings.Join(parts, " ")
}

func arity(op *vm.Opcode) string {
	switch {
	case op.Operands == vm.Variadic:
		return "any number"
	case op.Optional:
		return fmt.Sprintf("%d or %d", op.Operands-1, op.Operands)
	}
	return fmt.Sprintf("%d", op.Operands)
}

func describe(op *vm.Opcode) string {
	if op.IsFamily() {
		return "family " + selector(op)
	}
	return fmt.Sprintf("%s, %s operands, %s", selector(op), arity(op), op.Class)
}

func labelLine(text, name string) (int, bool) {
	for _, sl := range scanSource(text) {
		if sl.Label.Text == name {
			return sl.Line, true
		}
	}
	return 0, false
}

func tokenRange(line int, tok token) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(tok.Col)},
		End:   protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(tok.Col + len(tok.Text))},
	}
}

func definition(uri protocol.DocumentUri, text, word string) (protocol.Location, bool) {
	for _, sl := range scanSource(text) {
		if sl.Label.Text == word {
			return protocol.Location{URI: uri, Range: tokenRange(sl.Line, sl.Label)}, true
		}
	}
	return protocol.Location{}, false
}

func references(uri protocol.DocumentUri, text, word string, includeDecl bool) []protocol.Location {
	var locations []protocol.Location
	for _, sl := range scanSource(text) {
		if includeDecl && sl.Label.Text == word {
			locations = append(locations, protocol.Location{URI: uri, Range: tokenRange(sl.Line, sl.Label)})
		}
		for _, a := range sl.Args {
			if a.Text == word {
				locations = append(locations, protocol.Location{URI: uri, Range: tokenRange(sl.Line, a)})
			}
		}
	}
	return locations
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics := s.diagnose(text)
	log.Debugf("%s: %d diagnostics", uri, len(diagnostics))
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// diagnose reports unknown or bare family mnemonics, operand counts the
// opcode cannot take, duplicate labels and branches to undefined labels.
func (s *LspServer) diagnose(text string) []protocol.Diagnostic {
	lines := scanSource(text)
	diagnostics := []protocol.Diagnostic{}
	add := func(line int, tok token, sev protocol.DiagnosticSeverity, format string, args ...any) {
		source := lspName
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    tokenRange(line, tok),
			Severity: &sev,
			Source:   &source,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	labels := make(map[string]int)
	for _, sl := range lines {
		if sl.Label.Text == "" {
			continue
		}
		if first, dup := labels[sl.Label.Text]; dup {
			add(sl.Line, sl.Label, protocol.DiagnosticSeverityError, "label %q already defined on line %d", sl.Label.Text, first+1)
			continue
		}
		labels[sl.Label.Text] = sl.Line
	}

	for _, sl := range lines {
		if sl.Mnemonic.Text == "" {
			continue
		}
		op, ok := s.cat.Lookup(sl.Mnemonic.Text)
		switch {
		case !ok:
			add(sl.Line, sl.Mnemonic, protocol.DiagnosticSeverityError, "unknown mnemonic %q", sl.Mnemonic.Text)
			continue
		case op.IsFamily():
			add(sl.Line, sl.Mnemonic, protocol.DiagnosticSeverityError, "%s is a family, name one of its opcodes (%s.…)", op.Name, op.Name)
			continue
		case !op.Accepts(len(sl.Args)):
			add(sl.Line, sl.Mnemonic, protocol.DiagnosticSeverityError, "%s takes %s operands, got %d", op.Name, arity(op), len(sl.Args))
		}
		if !op.Class.Has(vm.ClassBranch) {
			continue
		}
		for _, a := range sl.Args {
			if _, isReg := vm.RegisterByName(a.Text); isReg || !isIdent(a.Text) {
				continue
			}
			if _, ok := labels[a.Text]; !ok {
				add(sl.Line, a, protocol.DiagnosticSeverityWarning, "undefined label %q", a.Text)
			}
		}
	}
	return diagnostics
}

// --- Text extraction helpers ---

// extractPrefix returns the mnemonic or label fragment before the cursor.
func extractPrefix(text string, pos protocol.Position) string {
	line, col, ok := cursorLine(text, pos)
	if !ok {
		return ""
	}
	start := col
	for start > 0 && isWordRune(rune(line[start-1])) {
		start--
	}
	return line[start:col]
}

// extractWord returns the full mnemonic or label under the cursor.
func extractWord(text string, pos protocol.Position) string {
	line, col, ok := cursorLine(text, pos)
	if !ok {
		return ""
	}
	start := col
	for start > 0 && isWordRune(rune(line[start-1])) {
		start--
	}
	end := col
	for end < len(line) && isWordRune(rune(line[end])) {
		end++
	}
	return line[start:end]
}

func cursorLine(text string, pos protocol.Position) (string, int, bool) {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return "", 0, false
	}
	line := lines[pos.Line]
	return line, min(int(pos.Character), len(line)), true
}

func boolPtr(b bool) *bool {
	return &b
}
