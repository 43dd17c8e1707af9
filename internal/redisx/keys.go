package redisx

import "fmt"

const (
	// cart:{user_id} -> JSON list of cart lines
	keyCart = "cart:%s"
	// cart:ver:{user_id} -> counter bumped on every cart write
	keyCartVersion = "cart:ver:%s"
)

func CartKey(userID string) string {
	return fmt.Sprintf(keyCart, userID)
}

func CartVersionKey(userID string) string {
	return fmt.Sprintf(keyCartVersion, userID)
}
