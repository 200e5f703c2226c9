package match

// RegistryError is a client-facing lifecycle error, sibling of the
// engines' rule errors.
type RegistryError struct {
	code string
}

func (e *RegistryError) Error() string {
	return e.code
}

func (e *RegistryError) Code() string {
	return e.code
}

var (
	ErrMatchNotFound       = &RegistryError{"MATCH_NOT_FOUND"}
	ErrMatchNotActive      = &RegistryError{"MATCH_NOT_ACTIVE"}
	ErrNotInMatch          = &RegistryError{"NOT_IN_MATCH"}
	ErrAlreadyInMatch      = &RegistryError{"ALREADY_IN_MATCH"}
	ErrUnknownGameType     = &RegistryError{"UNKNOWN_GAME_TYPE"}
	ErrInsufficientBalance = &RegistryError{"INSUFFICIENT_BALANCE"}
)
