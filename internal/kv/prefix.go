package kv

import "context"

// prefixed оборачивает Store, добавляя префикс к каждому ключу.
// Используется сервером, чтобы держать состояние разных пользователей
// в одном физическом хранилище.
type prefixed struct {
	inner  Store
	prefix string
}

// Prefixed возвращает Store, который дописывает prefix ко всем ключам.
func Prefixed(s Store, prefix string) Store {
	return &prefixed{inner: s, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string, out any) (bool, error) {
	return p.inner.Get(ctx, p.prefix+key, out)
}

func (p *prefixed) Set(ctx context.Context, key string, value any) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.prefix+key)
}
