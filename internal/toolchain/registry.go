package toolchain

import (
	"strings"

	"github.com/aotc-build/aotc/internal/msg"
)

type registryKey struct {
	hostPlatform   string
	hostArch       string
	targetPlatform string
	targetArch     string
}

func keyFor(hostPlatform, hostArch, targetPlatform, targetArch string) registryKey {
	return registryKey{
		hostPlatform:   strings.ToLower(hostPlatform),
		hostArch:       strings.ToLower(hostArch),
		targetPlatform: strings.ToLower(targetPlatform),
		targetArch:     strings.ToLower(targetArch),
	}
}

// Registry indexes toolchains by their case-normalized 4-tuple. Registration
// happens explicitly at process startup; the registry is read-only afterwards.
type Registry struct {
	resolver   *HostResolver
	toolchains map[registryKey]Toolchain
	order      []registryKey
}

func NewRegistry(resolver *HostResolver) *Registry {
	return &Registry{
		resolver:   resolver,
		toolchains: make(map[registryKey]Toolchain),
	}
}

// Register adds a toolchain. A duplicate 4-tuple silently overwrites the
// earlier registration (last wins, plain map semantics).
func (r *Registry) Register(t Toolchain) {
	key := keyFor(t.HostPlatform(), t.HostArch(), t.TargetPlatform(), t.TargetArch())
	if _, exists := r.toolchains[key]; !exists {
		r.order = append(r.order, key)
	}
	r.toolchains[key] = t
}

// Find resolves the host environment and looks up a toolchain for the target.
// Lookup is case-insensitive. A toolchain whose Initialize reports failure is
// never returned; like an unresolvable host, that is a soft "not found" so
// callers can try the next target.
func (r *Registry) Find(targetPlatform, targetArch string) (Toolchain, bool) {
	host, err := r.resolver.Resolve()
	if err != nil {
		msg.Warn("toolchain lookup for %s/%s: %v", targetPlatform, targetArch, err)
		return nil, false
	}

	tc, ok := r.toolchains[keyFor(host.Platform, host.Arch, targetPlatform, targetArch)]
	if !ok {
		return nil, false
	}
	if !tc.Initialize() {
		msg.Warn("toolchain %s found but failed to initialize", tc.Name())
		return nil, false
	}
	return tc, true
}

// HostTargetTriple renders the triple for a target against the resolved host.
func (r *Registry) HostTargetTriple(t Target) (string, error) {
	host, err := r.resolver.Resolve()
	if err != nil {
		return "", err
	}
	return Triple(host, t), nil
}

// All returns every registered toolchain in registration order.
func (r *Registry) All() []Toolchain {
	out := make([]Toolchain, 0, len(r.toolchains))
	for _, key := range r.order {
		out = append(out, r.toolchains[key])
	}
	return out
}
