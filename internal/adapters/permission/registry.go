package permission

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/johnqh/heavymath/internal/domain"
)

// Scope es el alcance de categoría de una credencial: un valor concreto o
// el comodín "cualquiera". Variante etiquetada en vez de constante
// centinela: un valor real de categoría nunca colisiona con el comodín.
type Scope struct {
	any   bool
	value string
}

// Any devuelve el scope comodín que habilita cualquier valor.
func Any() Scope {
	return Scope{any: true}
}

// Specific devuelve el scope que habilita exactamente value.
func Specific(value string) Scope {
	return Scope{value: value}
}

// Matches comprueba si el scope cubre el valor dado.
func (s Scope) Matches(value string) bool {
	return s.any || s.value == value
}

func (s Scope) String() string {
	if s.any {
		return "*"
	}
	return s.value
}

// credential es una licencia de creación de pools.
type credential struct {
	owner       string
	category    Scope
	subCategory Scope
}

// Registry implementa ports.Permission con un registro en memoria de
// credenciales transferibles.
type Registry struct {
	mu    sync.RWMutex
	creds map[string]credential
}

// NewRegistry crea un registro vacío.
func NewRegistry() *Registry {
	return &Registry{creds: make(map[string]credential)}
}

// Issue emite una credencial nueva para owner con los scopes dados y
// devuelve su ID.
func (r *Registry) Issue(owner string, category, subCategory Scope) string {
	id := uuid.New().String()
	r.mu.Lock()
	r.creds[id] = credential{owner: owner, category: category, subCategory: subCategory}
	r.mu.Unlock()
	return id
}

// Transfer cambia el poseedor de una credencial existente.
func (r *Registry) Transfer(credentialID, newOwner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cred, ok := r.creds[credentialID]
	if !ok {
		return fmt.Errorf("permission.Transfer: %s: %w", credentialID, domain.ErrNotAuthorized)
	}
	cred.owner = newOwner
	r.creds[credentialID] = cred
	return nil
}

// OwnerOf devuelve la identidad del poseedor actual.
func (r *Registry) OwnerOf(_ context.Context, credentialID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cred, ok := r.creds[credentialID]
	if !ok {
		return "", fmt.Errorf("permission.OwnerOf: %s: %w", credentialID, domain.ErrNotAuthorized)
	}
	return cred.owner, nil
}

// ValidatePermission resuelve los comodines de la credencial contra la
// pareja categoría/subcategoría pedida.
func (r *Registry) ValidatePermission(_ context.Context, credentialID, category, subCategory string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cred, ok := r.creds[credentialID]
	if !ok {
		return false, fmt.Errorf("permission.ValidatePermission: %s: %w", credentialID, domain.ErrNotAuthorized)
	}
	return cred.category.Matches(category) && cred.subCategory.Matches(subCategory), nil
}
