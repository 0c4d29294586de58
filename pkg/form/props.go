package form

import "sync"

// Props is the renderer-facing view of a field produced by a PropsFunc.
type Props map[string]any

// PropsFunc turns a field's current state into renderer props.
type PropsFunc func(*FieldAccessor) Props

var (
	propsMu        sync.RWMutex
	installedProps PropsFunc
)

// SetupValidationProps installs the process-wide props function used by forms
// that were not given one through WithValidationProps. It may be called again
// to replace the function; nil restores the default, which returns empty
// props.
func SetupValidationProps(fn PropsFunc) {
	propsMu.Lock()
	defer propsMu.Unlock()
	installedProps = fn
}

func resolveProps(own PropsFunc) PropsFunc {
	if own != nil {
		return own
	}
	propsMu.RLock()
	defer propsMu.RUnlock()
	if installedProps != nil {
		return installedProps
	}
	return emptyProps
}

func emptyProps(*FieldAccessor) Props {
	return Props{}
}

// ErrorProps is a ready-made PropsFunc exposing the field error under
// "error", omitted when the field is valid.
func ErrorProps(a *FieldAccessor) Props {
	props := Props{}
	if msg := a.Error(); msg != "" {
		props["error"] = msg
	}
	return props
}
