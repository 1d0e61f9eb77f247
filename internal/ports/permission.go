package ports

import "context"

// Permission es el registro externo de credenciales que decide quién puede
// abrir pools en cada categoría. El matching de comodines ("cualquier
// categoría") vive en el colaborador, no en el engine.
type Permission interface {
	// OwnerOf devuelve la identidad del poseedor actual de la credencial.
	OwnerOf(ctx context.Context, credentialID string) (string, error)

	// ValidatePermission comprueba si la credencial habilita la pareja
	// categoría/subcategoría dada, resolviendo comodines.
	ValidatePermission(ctx context.Context, credentialID, category, subCategory string) (bool, error)
}
