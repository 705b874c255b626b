package merge

import (
	"encoding/json"

	"tasksheet/internal/model"
)

// Settings adopts the remote settings wholesale but keeps locally-held
// secret keys: secrets are stripped before every push, so they never
// round-trip through the remote store and the local copy is the only
// one.
func Settings(local, remote model.Settings) (model.Settings, bool) {
	if remote == nil {
		return local, false
	}
	out := make(model.Settings, len(remote))
	for k, v := range remote {
		out[k] = v
	}
	for k, v := range local {
		if model.IsSecretKey(k) {
			out[k] = v
		}
	}
	if jsonEqual(local, out) {
		return local, false
	}
	return out, true
}

// Gamification adopts the remote blob when present and different.
func Gamification(local, remote model.Gamification) (model.Gamification, bool) {
	if len(remote) == 0 || jsonEqual(local, remote) {
		return local, false
	}
	return remote, true
}

func jsonEqual(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ja) == string(jb)
}
