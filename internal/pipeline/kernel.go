package pipeline

// The stage kernels stand in for real numerical inference. They are pure
// functions of their inputs and the resident weights, so a decode split into
// tiles produces exactly the bytes of a single-pass decode.

func mix(a, b uint32, w byte) uint32 {
	x := a*0x85ebca6b ^ b*0xc2b2ae35
	x += uint32(w)
	x ^= x >> 16
	x *= 0x27d4eb2d
	x ^= x >> 15
	return x
}

func weightAt(w []byte, i int) byte {
	if len(w) == 0 {
		return 0
	}
	return w[i%len(w)]
}

func encode(w []byte, seed uint32, cells int) []uint32 {
	latent := make([]uint32, cells)
	for i := range latent {
		latent[i] = mix(seed, uint32(i), weightAt(w, i))
	}
	return latent
}

func denoiseStep(w []byte, latent []uint32, step int) {
	for i, v := range latent {
		latent[i] = mix(v, uint32(step), weightAt(w, i+step))
	}
}

func decodeCell(w []byte, v uint32, i int) uint32 {
	return mix(v, 0x9e3779b9, weightAt(w, i))
}
