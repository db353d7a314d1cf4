// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import "math/rand/v2"

// PickKey returns one key chosen uniformly at random from pool, or "" when
// the pool is empty. There is no affinity between requests.
func PickKey(pool []string) string {
	switch len(pool) {
	case 0:
		return ""
	case 1:
		return pool[0]
	}
	return pool[rand.IntN(len(pool))]
}
