package editor

import (
	"errors"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/transaction"
)

var (
	ErrHostVeto             = errors.New("transaction vetoed by host")
	ErrUnknownCommand       = errors.New("unknown command")
	ErrCommandNotApplicable = errors.New("command is not applicable to the selection")
)

// Host сторона, встраивающая редактор.
// Методы вызываются под блокировкой редактора и не должны синхронно вызывать методы Editor.
type Host interface {
	// GetSelection текущее выделение, читается при каждом вызове команды.
	GetSelection() edtypes.Selection
	// OnDocumentChanged вызывается один раз на каждую закоммиченную транзакцию.
	OnDocumentChanged(html string)
	// OnCommandRejected сообщает причину, по которой команда вернула false.
	OnCommandRejected(name string, reason error)
}

// Vetoer необязательный интерфейс хоста. Ошибка отменяет транзакцию целиком.
type Vetoer interface {
	VetoTransaction(tx transaction.Transaction) error
}

// Options настройки экземпляра редактора.
type Options struct {
	// HistoryDepth число хранимых версий документа, включая текущую.
	HistoryDepth int
}

const defaultHistoryDepth = 16
