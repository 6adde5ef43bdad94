package editor

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/commands"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/tiptap"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/transaction"
)

// Editor экземпляр редактора одного документа.
// Вызовы сериализуются мьютексом: чтение выделения, построение транзакции и коммит атомарны.
type Editor struct {
	mu sync.Mutex

	registry *attrs.Registry
	bridge   *Bridge
	codec    *tiptap.Codec
	host     Host

	doc     *edtypes.Document
	history []*edtypes.Document
	depth   int

	// version читается без блокировки, в том числе из методов Host
	version atomic.Uint64
}

func New(registry *attrs.Registry, host Host, opts Options) *Editor {
	if opts.HistoryDepth < 1 {
		opts.HistoryDepth = defaultHistoryDepth
	}
	doc := edtypes.NewDocument()
	return &Editor{
		registry: registry,
		bridge:   NewBridge(registry),
		codec:    tiptap.NewCodec(registry),
		host:     host,
		doc:      doc,
		history:  []*edtypes.Document{doc},
		depth:    opts.HistoryDepth,
	}
}

func (e *Editor) Registry() *attrs.Registry {
	return e.registry
}

func (e *Editor) Bridge() *Bridge {
	return e.bridge
}

func (e *Editor) Codec() *tiptap.Codec {
	return e.codec
}

// LoadDocument заменяет документ разобранным HTML. Версия продолжает возрастать, история сбрасывается.
func (e *Editor) LoadDocument(repr string) {
	e.SetDocument(e.bridge.ParseHTML(repr))
}

// LoadJSON заменяет документ TipTap JSON.
func (e *Editor) LoadJSON(data []byte) error {
	doc, err := e.codec.ParseJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	e.SetDocument(doc)
	return nil
}

func (e *Editor) SetDocument(doc *edtypes.Document) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.doc = e.doc.Next(doc.Root)
	e.history = []*edtypes.Document{e.doc}
	e.version.Store(e.doc.Version)
}

// CurrentVersion номер текущей версии документа. Безопасно вызывать из методов Host.
func (e *Editor) CurrentVersion() uint64 {
	return e.version.Load()
}

// Document текущая версия документа.
func (e *Editor) Document() *edtypes.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}

func (e *Editor) HTML() string {
	return e.bridge.ToHTML(e.Document())
}

func (e *Editor) JSON() ([]byte, error) {
	return e.codec.Serialize(e.Document())
}

// History хранимые версии, от старых к новым.
func (e *Editor) History() []*edtypes.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*edtypes.Document(nil), e.history...)
}

// Version возвращает хранимую версию с номером n.
func (e *Editor) Version(n uint64) (*edtypes.Document, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, doc := range e.history {
		if doc.Version == n {
			return doc, true
		}
	}
	return nil, false
}

// ApplyCommand применяет именованную команду с аргументами.
// Возвращает false, если команда неизвестна, аргументы неверны, команда неприменима или хост наложил вето.
func (e *Editor) ApplyCommand(name string, args map[string]any) bool {
	cmd, err := e.resolve(name, args)
	if err != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.host.OnCommandRejected(name, err)
		return false
	}
	return e.Run(name, cmd)
}

// CanApplyCommand пробный прогон именованной команды, состояние не меняется.
func (e *Editor) CanApplyCommand(name string, args map[string]any) bool {
	cmd, err := e.resolve(name, args)
	if err != nil {
		return false
	}
	return e.Can(cmd)
}

func (e *Editor) resolve(name string, args map[string]any) (commands.Command, error) {
	factory, ok := commands.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return factory(commands.Args(args))
}

func (e *Editor) state() commands.State {
	return commands.State{
		Doc:       e.doc,
		Selection: e.host.GetSelection().Normalize(e.doc.Size()),
		Registry:  e.registry,
	}
}

// Can пробный прогон команды.
func (e *Editor) Can(cmd commands.Command) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return commands.Can(cmd, e.state())
}

// Run выполняет команду. Закоммиченное изменение сообщается хосту через OnDocumentChanged,
// отказ - через OnCommandRejected. Отправленные шаги коммитятся, даже если команда вернула false.
func (e *Editor) Run(name string, cmd commands.Command) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		tx         transaction.Transaction
		dispatched bool
	)
	ok := cmd(e.state(), func(t transaction.Transaction) {
		tx, dispatched = t, true
	})
	if !dispatched || tx.Empty() {
		if !ok {
			e.host.OnCommandRejected(name, ErrCommandNotApplicable)
		}
		return ok
	}

	if vetoer, ok := e.host.(Vetoer); ok {
		if err := vetoer.VetoTransaction(tx); err != nil {
			slog.Debug("Transaction vetoed", "command", name, "err", err)
			e.host.OnCommandRejected(name, fmt.Errorf("%w: %w", ErrHostVeto, err))
			return false
		}
	}

	doc, report := transaction.CommitOnto(tx, e.doc)
	for _, d := range report.Dropped {
		slog.Debug("Step dropped", "command", name, "step", d.Step.Kind, "err", d.Err)
	}
	if !report.Changed() {
		return ok
	}

	e.doc = doc
	e.version.Store(doc.Version)
	e.history = append(e.history, doc)
	if len(e.history) > e.depth {
		e.history = append([]*edtypes.Document(nil), e.history[len(e.history)-e.depth:]...)
	}
	e.host.OnDocumentChanged(e.bridge.ToHTML(doc))
	// частично собранная транзакция коммитится, но команда остается неуспешной
	return ok
}
