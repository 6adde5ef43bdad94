// Middleware API редактора: поиск сессии по идентификатору из URL и передача её в контекст обработчика.
package aiplan

import (
	"github.com/aisa-it/aiplan-editor/internal/aiplan/apierrors"
	store "github.com/aisa-it/aiplan-editor/internal/aiplan/memory-store"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
)

type SessionContext struct {
	echo.Context
	Session *store.Session
}

func (s *Services) SessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.FromString(c.Param("sessionId"))
		if err != nil {
			return EErrorDefined(c, apierrors.ErrInvalidSessionID)
		}

		session, err := s.sessions.Get(id)
		if err != nil {
			return EError(c, err)
		}

		return next(SessionContext{c, session})
	}
}

// WritableMiddleware запрещает изменение сессий только для чтения.
func WritableMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.(SessionContext).Session.ReadOnly {
			return EErrorDefined(c, apierrors.ErrSessionReadOnly)
		}
		return next(c)
	}
}
