package logging

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownComponent логгер компонента ещё не создавался
var ErrUnknownComponent = errors.New("unknown log component")

// LoggerManager управляет логгерами для разных компонентов
type LoggerManager struct {
	mu           sync.RWMutex
	loggers      map[string]*Logger
	defaultLevel LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{
			loggers:      make(map[string]*Logger),
			defaultLevel: INFO,
		}
	})
	return globalManager
}

// GetLogger возвращает логгер для компонента, создавая его при необходимости
func (lm *LoggerManager) GetLogger(component string) *Logger {
	lm.mu.RLock()
	if logger, exists := lm.loggers[component]; exists {
		lm.mu.RUnlock()
		return logger
	}
	lm.mu.RUnlock()

	lm.mu.Lock()
	defer lm.mu.Unlock()

	// Проверяем еще раз на случай race condition
	if logger, exists := lm.loggers[component]; exists {
		return logger
	}

	logger := newLogger(base, component, lm.defaultLevel)
	lm.loggers[component] = logger
	return logger
}

// ListComponents возвращает отсортированный список зарегистрированных компонентов
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	components := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

// Levels возвращает текущие уровни всех компонентов
func (lm *LoggerManager) Levels() map[string]LogLevel {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	out := make(map[string]LogLevel, len(lm.loggers))
	for component, logger := range lm.loggers {
		out[component] = logger.Level()
	}
	return out
}

// SetLogLevel устанавливает уровень логирования для компонента
func (lm *LoggerManager) SetLogLevel(component string, level LogLevel) error {
	lm.mu.RLock()
	logger, exists := lm.loggers[component]
	lm.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownComponent, component)
	}
	logger.SetLevel(level)
	return nil
}

func (lm *LoggerManager) setDefaultLevel(level LogLevel) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.defaultLevel = level
	for _, logger := range lm.loggers {
		logger.SetLevel(level)
	}
}

// GetComponentLogger возвращает логгер компонента
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().GetLogger(component)
}

func GetRewindLogger() *Logger {
	return GetComponentLogger("rewind")
}

func GetSceneLogger() *Logger {
	return GetComponentLogger("scene")
}

func GetAPILogger() *Logger {
	return GetComponentLogger("api")
}
