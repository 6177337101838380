package kv

import (
	"context"
	"sync"
)

// Memory — потокобезопасная реализация Store в памяти процесса.
// Используется в тестах и как запасной вариант, когда redis не настроен.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory создаёт пустое хранилище в памяти.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get возвращает значение по ключу, false — если ключа нет
// или значение не читается текущей версией схемы.
func (m *Memory) Get(_ context.Context, key string, out any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return decode(raw, out), nil
}

// Set сохраняет значение по ключу.
func (m *Memory) Set(_ context.Context, key string, value any) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

// Delete удаляет ключ; отсутствие ключа не считается ошибкой.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// Put записывает сырые байты по ключу мимо конверта версионирования.
// Нужен тестам, проверяющим чтение повреждённого или устаревшего кэша.
func (m *Memory) Put(key string, raw []byte) {
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
}
