package mpix_test

import (
	"fmt"

	"github.com/deepteams/mpix"
)

func ExampleImage_resize() {
	const w, h = 4, 4
	src := make([]byte, w*h*3)
	for i := range src {
		src[i] = 100
	}

	dst := make([]byte, 2*2*3)
	n, err := mpix.FromBuf(src, mpix.Format{Width: w, Height: h, FourCC: mpix.RGB3}).
		Resize(2, 2).
		ToBuf(dst)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("wrote %d bytes\n", n)
	// Output:
	// wrote 12 bytes
}

func ExampleImage_convert() {
	const w, h = 2, 1
	src := []byte{255, 0, 0, 0, 255, 0}

	dst := make([]byte, w*h)
	_, err := mpix.FromBuf(src, mpix.Format{Width: w, Height: h, FourCC: mpix.RGB3}).
		Convert(mpix.GREY).
		ToBuf(dst)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%d bytes of luma\n", len(dst))
	// Output:
	// 2 bytes of luma
}
