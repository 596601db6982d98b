package playerservice

import "errors"

var (
	ErrPlayerNotFound      = errors.New("player not found")
	ErrInvalidID           = errors.New("player id may only contain letters, digits, '_' and '-'")
	ErrInvalidIGN          = errors.New("invalid in-game name")
	ErrInvalidUUID         = errors.New("invalid minecraft uuid")
	ErrDuplicatePlayer     = errors.New("a player with this uuid already exists")
	ErrInvalidMainAccount  = errors.New("main account does not exist or is the player itself")
	ErrNoUUID              = errors.New("player has no minecraft uuid")
	ErrIdentityUnavailable = errors.New("identity service unavailable")
)
