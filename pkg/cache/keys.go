package cache

import "strings"

// Key type prefixes. [KeyType] recovers them for metrics labels.
const (
	KeyTypeArtifact  = "artifact"
	KeyTypeAnimation = "animation"
	KeyTypeSource    = "source"
)

// Keyer derives cache keys from content hashes and options.
type Keyer interface {
	// ArtifactKey keys one rendered output of a tree.
	ArtifactKey(treeHash string, opts ArtifactKeyOpts) string

	// AnimationKey keys the frame sequence of a scripted animation.
	AnimationKey(treeHash string, opts AnimationKeyOpts) string
}

// ArtifactKeyOpts holds every option that changes rendered bytes.
type ArtifactKeyOpts struct {
	Format         string   `json:"format"`
	Theme          string   `json:"theme,omitempty"`
	SiblingSpacing float64  `json:"sibling_spacing,omitempty"`
	DepthSpacing   float64  `json:"depth_spacing,omitempty"`
	Width          float64  `json:"width,omitempty"`
	Height         float64  `json:"height,omitempty"`
	Collapsed      []string `json:"collapsed,omitempty"`
	CollapseAll    bool     `json:"collapse_all,omitempty"`
	Viewer         bool     `json:"viewer,omitempty"`
	Detailed       bool     `json:"detailed,omitempty"`
}

// AnimationKeyOpts extends ArtifactKeyOpts with the action script.
type AnimationKeyOpts struct {
	ArtifactKeyOpts
	Actions []string `json:"actions"`
	FPS     int      `json:"fps"`
}

// DefaultKeyer hashes options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(treeHash string, opts ArtifactKeyOpts) string {
	return hashKey(KeyTypeArtifact, treeHash, opts)
}

// AnimationKey implements Keyer.
func (DefaultKeyer) AnimationKey(treeHash string, opts AnimationKeyOpts) string {
	return hashKey(KeyTypeAnimation, treeHash, opts)
}

// KeyType returns the type prefix of a key, ignoring any scope prefix.
func KeyType(key string) string {
	for _, t := range []string{KeyTypeArtifact, KeyTypeAnimation, KeyTypeSource} {
		if strings.Contains(key, t+":") {
			return t
		}
	}
	return "other"
}

// SourceKey keys a tree payload fetched from url.
func SourceKey(url string) string {
	return hashKey(KeyTypeSource, url)
}
