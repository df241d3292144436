package model

// RewardToken is an opaque end-of-round reward computed by the reward
// algorithm. The session only carries it to the earning summary; its
// contents are owned by the rewards collaborator.
type RewardToken struct {
	Kind  string `json:"kind"`
	Stars int    `json:"stars"`
}
