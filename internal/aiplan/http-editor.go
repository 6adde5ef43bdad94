// Обработчики API сессий редактора.
package aiplan

import (
	"encoding/json"
	"net/http"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/apierrors"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/dto"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/commands"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
	store "github.com/aisa-it/aiplan-editor/internal/aiplan/memory-store"
	errStack "github.com/aisa-it/aiplan-editor/internal/aiplan/stack-error"
	"github.com/labstack/echo/v4"
)

func (s *Services) AddEditorServices(g *echo.Group) {
	g.GET("commands/", s.getCommandList)
	g.GET("attributes/", s.getAttributeList)

	g.GET("sessions/", s.getSessionList)
	g.POST("sessions/", s.createSession)

	sessionGroup := g.Group("sessions/:sessionId", s.SessionMiddleware)
	sessionGroup.GET("/", s.getSession)
	sessionGroup.DELETE("/", s.deleteSession)

	sessionGroup.GET("/document/", s.getDocument)
	sessionGroup.PUT("/document/", s.loadDocument, WritableMiddleware)

	sessionGroup.GET("/selection/", s.getSelection)
	sessionGroup.PUT("/selection/", s.setSelection)

	sessionGroup.POST("/commands/:command/", s.applyCommand)
	sessionGroup.POST("/commands/:command/can/", s.canApplyCommand)

	sessionGroup.GET("/versions/", s.getVersionList)
	sessionGroup.GET("/versions/:version/", s.getVersion)

	sessionGroup.GET("/ws/", s.sessionChanges)
}

// getCommandList godoc
// @id getCommandList
// @Summary editor: каталог команд
// @Description Возвращает команды редактора в порядке объявления с именами аргументов
// @Tags Editor
// @Produce json
// @Success 200 {array} dto.CommandLight "команды"
// @Router /api/editor/commands/ [get]
func (s *Services) getCommandList(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.CommandsToDTO(commands.Definitions()))
}

// getAttributeList godoc
// @id getAttributeList
// @Summary editor: реестр атрибутов
// @Tags Editor
// @Produce json
// @Success 200 {array} dto.AttributeLight "атрибуты"
// @Router /api/editor/attributes/ [get]
func (s *Services) getAttributeList(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.AttributesToDTO(s.registry))
}

// getSessionList godoc
// @id getSessionList
// @Summary editor: открытые сессии
// @Tags Editor
// @Produce json
// @Success 200 {array} dto.SessionLight "сессии"
// @Router /api/editor/sessions/ [get]
func (s *Services) getSessionList(c echo.Context) error {
	list := s.sessions.List()
	result := make([]*dto.SessionLight, 0, len(list))
	for _, session := range list {
		result = append(result, session.ToLightDTO())
	}
	return c.JSON(http.StatusOK, result)
}

// createSession godoc
// @id createSession
// @Summary editor: открытие сессии
// @Description Открывает сессию редактора с документом в формате html или json
// @Tags Editor
// @Accept json
// @Produce json
// @Param data body CreateSessionRequest true "документ сессии"
// @Success 201 {object} dto.SessionLight "сессия"
// @Failure 400 {object} apierrors.DefinedError "Некорректный документ"
// @Failure 413 {object} apierrors.DefinedError "Документ слишком большой"
// @Failure 429 {object} apierrors.DefinedError "Превышено количество сессий"
// @Router /api/editor/sessions/ [post]
func (s *Services) createSession(c echo.Context) error {
	var req CreateSessionRequest
	if err := bindValid(c, &req); err != nil {
		return EError(c, err)
	}

	var (
		session *store.Session
		err     error
	)
	switch req.Format {
	case FormatJSON:
		if len(req.JSON) > s.cfg.MaxDocumentBytes {
			return EErrorDefined(c, apierrors.ErrDocumentTooLarge)
		}
		session, err = s.sessions.CreateJSON(req.Title, req.JSON, req.ReadOnly)
	default:
		if len(req.HTML) > s.cfg.MaxDocumentBytes {
			return EErrorDefined(c, apierrors.ErrDocumentTooLarge)
		}
		session, err = s.sessions.Create(req.Title, req.HTML, req.ReadOnly)
	}
	if err != nil {
		return EError(c, err)
	}
	s.metrics.loads.WithLabelValues(formatOrHTML(req.Format)).Inc()
	return c.JSON(http.StatusCreated, session.ToLightDTO())
}

// getSession godoc
// @id getSession
// @Summary editor: сессия
// @Tags Editor
// @Produce json
// @Param sessionId path string true "Id сессии"
// @Success 200 {object} dto.SessionLight "сессия"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Failure 410 {object} apierrors.DefinedError "Срок действия сессии истек"
// @Router /api/editor/sessions/{sessionId}/ [get]
func (s *Services) getSession(c echo.Context) error {
	return c.JSON(http.StatusOK, c.(SessionContext).Session.ToLightDTO())
}

// deleteSession godoc
// @id deleteSession
// @Summary editor: закрытие сессии
// @Description Закрывает сессию и все подключения к её вебсокету
// @Tags Editor
// @Param sessionId path string true "Id сессии"
// @Success 204 "сессия закрыта"
// @Router /api/editor/sessions/{sessionId}/ [delete]
func (s *Services) deleteSession(c echo.Context) error {
	session := c.(SessionContext).Session
	s.sessions.Delete(session.ID)
	return c.NoContent(http.StatusNoContent)
}

// getDocument godoc
// @id getDocument
// @Summary editor: текущий документ
// @Tags Editor
// @Produce json
// @Param sessionId path string true "Id сессии"
// @Param format query string false "html или json"
// @Success 200 {object} dto.DocumentResponse "документ"
// @Failure 400 {object} apierrors.DefinedError "Неподдерживаемый формат"
// @Router /api/editor/sessions/{sessionId}/document/ [get]
func (s *Services) getDocument(c echo.Context) error {
	session := c.(SessionContext).Session
	format, err := formatParam(c)
	if err != nil {
		return EError(c, err)
	}
	resp, err := documentResponse(session, session.Editor().Document(), format)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// loadDocument godoc
// @id loadDocument
// @Summary editor: замена документа
// @Description Заменяет документ сессии. Версия продолжает возрастать, история и выделение сбрасываются
// @Tags Editor
// @Accept json
// @Produce json
// @Param sessionId path string true "Id сессии"
// @Param data body LoadDocumentRequest true "документ"
// @Success 200 {object} dto.SessionLight "сессия"
// @Failure 403 {object} apierrors.DefinedError "Сессия только для чтения"
// @Router /api/editor/sessions/{sessionId}/document/ [put]
func (s *Services) loadDocument(c echo.Context) error {
	session := c.(SessionContext).Session

	var req LoadDocumentRequest
	if err := bindValid(c, &req); err != nil {
		return EError(c, err)
	}

	var err error
	switch req.Format {
	case FormatJSON:
		if len(req.JSON) > s.cfg.MaxDocumentBytes {
			return EErrorDefined(c, apierrors.ErrDocumentTooLarge)
		}
		err = session.LoadJSON(req.JSON)
	default:
		if len(req.HTML) > s.cfg.MaxDocumentBytes {
			return EErrorDefined(c, apierrors.ErrDocumentTooLarge)
		}
		err = session.Load(req.HTML)
	}
	if err != nil {
		return EError(c, err)
	}
	s.metrics.loads.WithLabelValues(formatOrHTML(req.Format)).Inc()
	return c.JSON(http.StatusOK, session.ToLightDTO())
}

// getSelection godoc
// @id getSelection
// @Summary editor: текущее выделение
// @Tags Editor
// @Produce json
// @Param sessionId path string true "Id сессии"
// @Success 200 {object} dto.SelectionLight "выделение"
// @Router /api/editor/sessions/{sessionId}/selection/ [get]
func (s *Services) getSelection(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.SelectionToDTO(c.(SessionContext).Session.Selection()))
}

// setSelection godoc
// @id setSelection
// @Summary editor: установка выделения
// @Description Ставит выделение сессии. from и to упорядочиваются
// @Tags Editor
// @Accept json
// @Produce json
// @Param sessionId path string true "Id сессии"
// @Param data body SelectionRequest true "выделение"
// @Success 200 {object} dto.SelectionLight "выделение"
// @Failure 400 {object} apierrors.DefinedError "Выделение за границами документа"
// @Router /api/editor/sessions/{sessionId}/selection/ [put]
func (s *Services) setSelection(c echo.Context) error {
	session := c.(SessionContext).Session

	var req SelectionRequest
	if err := bindValid(c, &req); err != nil {
		return EError(c, err)
	}
	if err := session.SetSelection(req.Selection()); err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, dto.SelectionToDTO(session.Selection()))
}

// applyCommand godoc
// @id applyCommand
// @Summary editor: выполнение команды
// @Description Выполняет команду над выделением сессии. Если передано selection, оно ставится перед выполнением
// @Tags Editor
// @Accept json
// @Produce json
// @Param sessionId path string true "Id сессии"
// @Param command path string true "Имя команды"
// @Param data body CommandRequest false "аргументы и выделение"
// @Success 200 {object} dto.CommandResult "результат"
// @Failure 400 {object} apierrors.DefinedError "Некорректные аргументы"
// @Failure 403 {object} apierrors.DefinedError "Изменение отклонено"
// @Failure 404 {object} apierrors.DefinedError "Неизвестная команда"
// @Failure 409 {object} apierrors.DefinedError "Команда неприменима"
// @Router /api/editor/sessions/{sessionId}/commands/{command}/ [post]
func (s *Services) applyCommand(c echo.Context) error {
	session := c.(SessionContext).Session
	name := c.Param("command")

	var req CommandRequest
	if err := bindValid(c, &req); err != nil {
		return EError(c, err)
	}

	applied, err := session.Apply(name, req.Args, req.selection())
	s.metrics.commandResult(name, applied, false)
	if err != nil {
		return EError(c, store.MapError(name, err))
	}

	return c.JSON(http.StatusOK, dto.CommandResult{
		Command: name,
		Applied: applied,
		Version: session.Editor().CurrentVersion(),
		HTML:    session.Editor().HTML(),
	})
}

// canApplyCommand godoc
// @id canApplyCommand
// @Summary editor: проверка команды
// @Description Пробный прогон команды, документ не меняется
// @Tags Editor
// @Accept json
// @Produce json
// @Param sessionId path string true "Id сессии"
// @Param command path string true "Имя команды"
// @Param data body CommandRequest false "аргументы и выделение"
// @Success 200 {object} dto.CommandResult "результат"
// @Router /api/editor/sessions/{sessionId}/commands/{command}/can/ [post]
func (s *Services) canApplyCommand(c echo.Context) error {
	session := c.(SessionContext).Session
	name := c.Param("command")

	var req CommandRequest
	if err := bindValid(c, &req); err != nil {
		return EError(c, err)
	}

	can, err := session.Can(name, req.Args, req.selection())
	if err != nil {
		return EError(c, err)
	}
	s.metrics.commandResult(name, can, true)
	return c.JSON(http.StatusOK, dto.CommandResult{
		Command: name,
		Applied: can,
		Version: session.Editor().CurrentVersion(),
	})
}

// getVersionList godoc
// @id getVersionList
// @Summary editor: хранимые версии документа
// @Tags Editor
// @Produce json
// @Param sessionId path string true "Id сессии"
// @Success 200 {array} dto.VersionLight "версии от старых к новым"
// @Router /api/editor/sessions/{sessionId}/versions/ [get]
func (s *Services) getVersionList(c echo.Context) error {
	e := c.(SessionContext).Session.Editor()
	history := e.History()
	current := history[len(history)-1].Version

	result := make([]dto.VersionLight, 0, len(history))
	for _, doc := range history {
		result = append(result, dto.VersionLight{
			Version: doc.Version,
			Size:    doc.Size(),
			Current: doc.Version == current,
		})
	}
	return c.JSON(http.StatusOK, result)
}

// getVersion godoc
// @id getVersion
// @Summary editor: версия документа
// @Tags Editor
// @Produce json
// @Param sessionId path string true "Id сессии"
// @Param version path int true "Номер версии"
// @Param format query string false "html или json"
// @Success 200 {object} dto.DocumentResponse "документ"
// @Failure 404 {object} apierrors.DefinedError "Версия не найдена"
// @Router /api/editor/sessions/{sessionId}/versions/{version}/ [get]
func (s *Services) getVersion(c echo.Context) error {
	session := c.(SessionContext).Session
	n, err := versionParam(c)
	if err != nil {
		return EError(c, err)
	}
	format, err := formatParam(c)
	if err != nil {
		return EError(c, err)
	}
	doc, ok := session.Editor().Version(n)
	if !ok {
		return EErrorDefined(c, apierrors.ErrVersionNotFound)
	}
	resp, err := documentResponse(session, doc, format)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// sessionChanges godoc
// @id sessionChanges
// @Summary editor: вебсокет изменений документа
// @Description Первым сообщением приходит текущий документ (snapshot), затем изменения (document_changed)
// @Tags Editor
// @Param sessionId path string true "Id сессии"
// @Router /api/editor/sessions/{sessionId}/ws/ [get]
func (s *Services) sessionChanges(c echo.Context) error {
	session := c.(SessionContext).Session
	snapshot := store.Change{
		SessionID: session.ID,
		Version:   session.Editor().CurrentVersion(),
		HTML:      session.Editor().HTML(),
	}
	s.hub.Handle(session.ID, &snapshot, c.Response(), c.Request())
	return nil
}

func documentResponse(session *store.Session, doc *edtypes.Document, format string) (dto.DocumentResponse, error) {
	resp := dto.DocumentResponse{
		SessionId: session.ID.String(),
		Version:   doc.Version,
		Format:    format,
		Size:      doc.Size(),
	}
	switch format {
	case FormatJSON:
		data, err := session.Editor().Codec().Serialize(doc)
		if err != nil {
			return resp, errStack.TrackErrorStack(err).
				AddContext("session", resp.SessionId).
				AddContext("version", doc.Version)
		}
		resp.JSON = json.RawMessage(data)
	default:
		resp.HTML = session.Editor().Bridge().ToHTML(doc)
	}
	return resp, nil
}

func formatOrHTML(format string) string {
	if format == "" {
		return FormatHTML
	}
	return format
}
