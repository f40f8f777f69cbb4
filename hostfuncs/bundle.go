package hostfuncs

// HostFuncBundle is a pre-configured set of related host functions.
// Bundles allow registering multiple functions at once.
type HostFuncBundle interface {
	Funcs() []Func
}

type staticBundle struct {
	funcs []Func
}

func (b *staticBundle) Funcs() []Func {
	return b.funcs
}

// NNBundle returns load, init_execution_context, set_input, compute and
// get_output bound to nn.
func NNBundle(nn *NN) HostFuncBundle {
	return &staticBundle{funcs: nn.Funcs()}
}

// ImageBundle returns image_to_tensor and convert_image bound to im.
func ImageBundle(im *Image) HostFuncBundle {
	return &staticBundle{funcs: im.Funcs()}
}

type compositeBundle struct {
	bundles []HostFuncBundle
}

func (b *compositeBundle) Funcs() []Func {
	var out []Func
	for _, bundle := range b.bundles {
		out = append(out, bundle.Funcs()...)
	}
	return out
}

// AllBundles combines the inference and image functions.
func AllBundles(nn *NN, im *Image) HostFuncBundle {
	return &compositeBundle{bundles: []HostFuncBundle{NNBundle(nn), ImageBundle(im)}}
}
