// Пакет для управления фоновыми задачами сервера редактора.
//
// Основные возможности:
//   - Регистрация задач в реестре с расписанием cron.
//   - Загрузка задач из реестра в диспетчер.
//   - Ручной запуск задачи по имени.
//   - Запуск и остановка cron-диспетчера.
package cronmanager

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// SessionsCleanJob имя задачи очистки устаревших сессий редактора.
const SessionsCleanJob = "sessions_clean"

type CronJobFunc func()

type Job struct {
	Func     CronJobFunc
	Schedule string
}

type JobRegistry map[string]Job

// Cleaner хранилище, умеющее удалять устаревшие записи.
type Cleaner interface {
	CleanExpired()
}

// EditorJobs реестр задач сервера редактора.
func EditorJobs(sessions Cleaner, schedule string) JobRegistry {
	return JobRegistry{
		SessionsCleanJob: {Func: sessions.CleanExpired, Schedule: schedule},
	}
}

// JobInfo состояние задачи в расписании.
type JobInfo struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	Next     time.Time `json:"next"`
	Prev     time.Time `json:"prev,omitempty"`
}

type CronManager struct {
	dispatcher  *cron.Cron
	jobs        map[string]cron.EntryID
	mu          sync.Mutex
	jobRegistry JobRegistry
}

// NewCronManager создает новый менеджер для планирования задач.
// Параметры:
//   - jobRegistry: реестр задач
//
// Возвращает:
//   - *CronManager: созданный менеджер для планирования задач
func NewCronManager(jobRegistry JobRegistry) *CronManager {
	dispatcher := cron.New(
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)

	return &CronManager{
		dispatcher:  dispatcher,
		jobs:        make(map[string]cron.EntryID),
		jobRegistry: jobRegistry,
	}
}

// LoadJobs загружает задачи из реестра, ранее загруженные снимаются с расписания.
// Возвращает первую ошибку разбора расписания, остальные задачи при этом загружаются.
func (cm *CronManager) LoadJobs() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for name, entryID := range cm.jobs {
		cm.dispatcher.Remove(entryID)
		delete(cm.jobs, name)
	}

	var first error
	for name, job := range cm.jobRegistry {
		if err := cm.addJob(name, job); err != nil {
			slog.Error("Error adding job", "name", name, "err", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (cm *CronManager) addJob(name string, job Job) error {
	if job.Func == nil {
		return fmt.Errorf("no job function registered for name: %s", name)
	}

	id, err := cm.dispatcher.AddFunc(job.Schedule, cron.FuncJob(job.Func))
	if err != nil {
		return fmt.Errorf("failed to add job '%s': %w", name, err)
	}
	cm.jobs[name] = id
	return nil
}

// RemoveJob снимает задачу с расписания.
func (cm *CronManager) RemoveJob(name string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if entryID, exists := cm.jobs[name]; exists {
		cm.dispatcher.Remove(entryID)
		delete(cm.jobs, name)
	}
}

// RunNow синхронно выполняет задачу из реестра вне расписания.
func (cm *CronManager) RunNow(name string) error {
	cm.mu.Lock()
	job, ok := cm.jobRegistry[name]
	cm.mu.Unlock()
	if !ok || job.Func == nil {
		return fmt.Errorf("no job function registered for name: %s", name)
	}
	job.Func()
	return nil
}

// Jobs задачи в расписании, отсортированные по имени.
func (cm *CronManager) Jobs() []JobInfo {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	res := make([]JobInfo, 0, len(cm.jobs))
	for name, id := range cm.jobs {
		e := cm.dispatcher.Entry(id)
		res = append(res, JobInfo{
			Name:     name,
			Schedule: cm.jobRegistry[name].Schedule,
			Next:     e.Next,
			Prev:     e.Prev,
		})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// Start запускает диспетчер в отдельной горутине.
func (cm *CronManager) Start() {
	cm.dispatcher.Start()
}

// Stop останавливает диспетчер и ждет завершения выполняющихся задач.
func (cm *CronManager) Stop() {
	ctx := cm.dispatcher.Stop()
	<-ctx.Done()
}
