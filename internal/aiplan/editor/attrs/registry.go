// Пакет attrs содержит реестр атрибутов узлов и марок редактора.
// Спецификация атрибута - обычная запись данных с функциями Parse/Render,
// реестр строится из явной конфигурации и не хранит глобального состояния.
package attrs

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"
)

var (
	ErrDuplicateAttribute = errors.New("duplicate attribute")
	ErrInvalidSpec        = errors.New("invalid attribute spec")
)

// Target место значения атрибута в HTML представлении.
type Target int

const (
	// TargetStyle свойство inline стиля Key.
	TargetStyle Target = iota
	// TargetAttr HTML атрибут Key.
	TargetAttr
	// TargetTag значение выбирает имя тега (уровень заголовка).
	TargetTag
)

func (t Target) String() string {
	switch t {
	case TargetStyle:
		return "style"
	case TargetAttr:
		return "attr"
	case TargetTag:
		return "tag"
	}
	return fmt.Sprintf("Target(%d)", int(t))
}

// AttributeSpec описание атрибута.
//
// Parse тотальна: любая строка даёт значение, нераспознанная - Default.
// Render(Default) возвращает ok == false, значения по умолчанию не сериализуются.
// Coerce приводит типизированное значение (из JSON) к канонической форме, nil - использовать Parse.
// Origin отличает спецификации с общим кодом функций, но разным поведением (например, из разных Config).
type AttributeSpec struct {
	Name      string
	AppliesTo []string
	Default   any
	Target    Target
	Key       string
	Parse     func(raw string) any
	Render    func(value any) (string, bool)
	Coerce    func(value any) any
	Origin    string
}

func (s AttributeSpec) Applies(typ string) bool {
	return slices.Contains(s.AppliesTo, typ)
}

// IsDefault сообщает, совпадает ли значение со значением по умолчанию.
func (s AttributeSpec) IsDefault(v any) bool {
	return v == nil || reflect.DeepEqual(v, s.Default)
}

func (s AttributeSpec) same(o AttributeSpec) bool {
	if s.Name != o.Name || s.Origin != o.Origin || s.Target != o.Target || s.Key != o.Key || !reflect.DeepEqual(s.Default, o.Default) {
		return false
	}
	a, b := slices.Clone(s.AppliesTo), slices.Clone(o.AppliesTo)
	slices.Sort(a)
	slices.Sort(b)
	if !slices.Equal(a, b) {
		return false
	}
	return sameFunc(s.Parse, o.Parse) && sameFunc(s.Render, o.Render) && sameFunc(s.Coerce, o.Coerce)
}

func sameFunc(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.IsNil() || vb.IsNil() {
		return va.IsNil() == vb.IsNil()
	}
	return va.Pointer() == vb.Pointer()
}

type Registry struct {
	cfg Config

	mu     sync.RWMutex
	specs  map[string]AttributeSpec
	byType map[string][]string
}

// NewRegistry создаёт пустой реестр.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		cfg:    cfg.sanitize(),
		specs:  make(map[string]AttributeSpec),
		byType: make(map[string][]string),
	}
}

// NewDefaultRegistry создаёт реестр со встроенными атрибутами редактора.
func NewDefaultRegistry(cfg Config) (*Registry, error) {
	r := NewRegistry(cfg)
	for _, spec := range Builtin(r.cfg) {
		if err := r.Register(spec); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Config() Config {
	return r.cfg
}

// Register добавляет спецификацию. Повторная регистрация той же спецификации ничего не меняет,
// другая спецификация под тем же именем - ErrDuplicateAttribute.
func (r *Registry) Register(spec AttributeSpec) error {
	if spec.Name == "" || len(spec.AppliesTo) == 0 || spec.Parse == nil || spec.Render == nil {
		return fmt.Errorf("%w: %q", ErrInvalidSpec, spec.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.specs[spec.Name]; ok {
		if old.same(spec) {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrDuplicateAttribute, spec.Name)
	}

	spec.AppliesTo = slices.Clone(spec.AppliesTo)
	r.specs[spec.Name] = spec
	for _, typ := range spec.AppliesTo {
		names := append(r.byType[typ], spec.Name)
		slices.Sort(names)
		r.byType[typ] = slices.Compact(names)
	}
	return nil
}

func (r *Registry) Get(name string) (AttributeSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[name]
	return spec, ok
}

// MustGet для встроенных атрибутов, отсутствие которых - ошибка программиста.
func (r *Registry) MustGet(name string) AttributeSpec {
	spec, ok := r.Get(name)
	if !ok {
		panic("attribute not registered: " + name)
	}
	return spec
}

// DefaultsFor возвращает значения по умолчанию всех атрибутов типа.
func (r *Registry) DefaultsFor(typ string) map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make(map[string]any, len(r.byType[typ]))
	for _, name := range r.byType[typ] {
		res[name] = r.specs[name].Default
	}
	return res
}

// ForType возвращает спецификации типа в лексикографическом порядке имён.
func (r *Registry) ForType(typ string) []AttributeSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]AttributeSpec, 0, len(r.byType[typ]))
	for _, name := range r.byType[typ] {
		res = append(res, r.specs[name])
	}
	return res
}

func (r *Registry) TypesFor(name string) []string {
	spec, ok := r.Get(name)
	if !ok {
		return nil
	}
	return slices.Clone(spec.AppliesTo)
}

func (r *Registry) Applies(name, typ string) bool {
	spec, ok := r.Get(name)
	return ok && spec.Applies(typ)
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.specs))
}

// Coerce приводит значение к канонической форме атрибута.
func (r *Registry) Coerce(name string, v any) any {
	spec, ok := r.Get(name)
	if !ok {
		return v
	}
	if v == nil {
		return spec.Default
	}
	if spec.Coerce != nil {
		return spec.Coerce(v)
	}
	if s, ok := v.(string); ok {
		return spec.Parse(s)
	}
	return spec.Parse(fmt.Sprint(v))
}
