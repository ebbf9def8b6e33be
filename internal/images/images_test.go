// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package images

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-extract/internal/pdfdoc"
	"github.com/pdiddy/pdf-extract/internal/testpdf"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestExtractPage_MinSizeFilter(t *testing.T) {
	rp := &pdfdoc.RawPage{
		Index:  1,
		Height: 800,
		Images: []pdfdoc.RawImage{
			{Name: "Im1", ObjNr: 7, Width: 500, Height: 400, Format: "jpg", Data: testpdf.JPEG(500, 400)},
			{Name: "Im2", ObjNr: 9, Width: 20, Height: 20, Format: "jpg", Data: testpdf.JPEG(20, 20)},
		},
		Draws: []pdfdoc.Draw{
			{Name: "Im1", Order: 0, Top: 600},
			{Name: "Im2", Order: 1, Top: 200},
		},
	}
	assets, anchors := New(100, nil).ExtractPage(rp)
	require.Len(t, assets, 2)

	kept := assets[0]
	assert.Equal(t, "page1_img1", kept.ID)
	assert.True(t, kept.Kept)
	assert.Equal(t, 500, kept.Width)
	assert.Equal(t, 400, kept.Height)
	assert.Equal(t, "page1_img1.jpg", kept.Filename())
	assert.NotEmpty(t, kept.Data)
	assert.InDelta(t, 0.25, kept.Anchor.Offset, 1e-9)

	dropped := assets[1]
	assert.Equal(t, "page1_filtered2", dropped.ID)
	assert.False(t, dropped.Kept)
	assert.Equal(t, types.FilterBelowMinSize, dropped.FilterReason)
	assert.Nil(t, dropped.Data)

	require.Len(t, anchors, 1)
	assert.Equal(t, types.ImageAnchor{ImageID: "page1_img1", Page: 1, Order: 1, Offset: 0.25}, anchors[0])
}

func TestExtractPage_Threshold(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		min  int
		kept bool
	}{
		{"wide enough", 10, 1, 10, true},
		{"tall enough", 1, 10, 10, true},
		{"just under", 9, 9, 10, false},
		{"square at threshold", 100, 100, 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rp := &pdfdoc.RawPage{Index: 2, Height: 792, Images: []pdfdoc.RawImage{
				{Name: "X", Width: tt.w, Height: tt.h, Format: "png", Data: []byte{1, 2, 3}},
			}}
			assets, anchors := New(tt.min, nil).ExtractPage(rp)
			require.Len(t, assets, 1)
			assert.Equal(t, tt.kept, assets[0].Kept)
			if tt.kept {
				assert.Equal(t, "page2_img1", assets[0].ID)
				assert.Len(t, anchors, 1)
			} else {
				assert.Empty(t, anchors)
			}
		})
	}
}

func TestExtractPage_Order(t *testing.T) {
	big := []byte{1}
	rp := &pdfdoc.RawPage{
		Index:  3,
		Height: 1000,
		Images: []pdfdoc.RawImage{
			{Name: "A", ObjNr: 1, Width: 50, Height: 50, Data: big},
			{Name: "B", ObjNr: 2, Width: 50, Height: 50, Data: big},
			{Name: "C", ObjNr: 3, Width: 50, Height: 50, Data: big},
			{Name: "D", ObjNr: 4, Width: 50, Height: 50, Data: big},
		},
		Draws: []pdfdoc.Draw{
			{Name: "C", Order: 0, Top: 900},
			{Name: "A", Order: 1, Top: 500},
			{Name: "C", Order: 2, Top: 100},
		},
	}
	assets, anchors := New(10, nil).ExtractPage(rp)
	require.Len(t, assets, 4)

	var seq []int
	var ids []string
	for _, a := range assets {
		seq = append(seq, a.Seq)
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, seq)
	assert.Equal(t, []string{"page3_img1", "page3_img2", "page3_img3", "page3_img4"}, ids)
	assert.InDelta(t, 0.1, anchors[0].Offset, 1e-9)
	assert.InDelta(t, 0.5, anchors[1].Offset, 1e-9)
	assert.Equal(t, 1.0, anchors[2].Offset, "undrawn images sit at the end of the page")
	assert.Equal(t, 1.0, anchors[3].Offset)

	again, _ := New(10, nil).ExtractPage(rp)
	assert.Equal(t, assets, again, "ids are stable across runs")
}

func TestExtractPage_HeaderFillsMissingDimensions(t *testing.T) {
	rp := &pdfdoc.RawPage{Index: 1, Height: 792, Images: []pdfdoc.RawImage{
		{Name: "P", Data: pngBytes(t, 64, 32)},
	}}
	assets, _ := New(10, nil).ExtractPage(rp)
	require.Len(t, assets, 1)
	assert.Equal(t, 64, assets[0].Width)
	assert.Equal(t, 32, assets[0].Height)
	assert.Equal(t, "png", assets[0].Format)
	assert.True(t, assets[0].Kept)
}

func TestExtractPage_NoPayload(t *testing.T) {
	rp := &pdfdoc.RawPage{Index: 4, Height: 792, Images: []pdfdoc.RawImage{
		{Name: "Z", Width: 500, Height: 400},
		{Name: "Y", Width: 5, Height: 5},
	}}
	assets, anchors := New(100, nil).ExtractPage(rp)
	require.Len(t, assets, 2)

	big := assets[0]
	assert.True(t, big.Kept, "the size filter alone decides kept")
	assert.True(t, big.PayloadMissing)
	assert.Empty(t, big.FilterReason)
	assert.Equal(t, "page4_img1", big.ID)
	assert.False(t, big.HasFile())

	small := assets[1]
	assert.False(t, small.Kept)
	assert.Equal(t, types.FilterBelowMinSize, small.FilterReason)
	assert.Empty(t, anchors, "images without bytes get no placeholder")
}

func TestExtractPage_IDsCountEveryImage(t *testing.T) {
	rp := &pdfdoc.RawPage{
		Index:  1,
		Height: 800,
		Images: []pdfdoc.RawImage{
			{Name: "Small", ObjNr: 1, Width: 20, Height: 20, Format: "jpg", Data: []byte{1}},
			{Name: "Large", ObjNr: 2, Width: 500, Height: 400, Format: "jpg", Data: []byte{1}},
		},
		Draws: []pdfdoc.Draw{
			{Name: "Small", Order: 0, Top: 700},
			{Name: "Large", Order: 1, Top: 400},
		},
	}
	assets, anchors := New(100, nil).ExtractPage(rp)
	require.Len(t, assets, 2)
	assert.Equal(t, "page1_filtered1", assets[0].ID)
	assert.Equal(t, "page1_img2", assets[1].ID)
	require.Len(t, anchors, 1)
	assert.Equal(t, "page1_img2", anchors[0].ImageID)
	assert.Equal(t, 1, anchors[0].Order)

	all, _ := New(10, nil).ExtractPage(rp)
	assert.Equal(t, "page1_img2", all[1].ID, "an id does not move when an earlier image is filtered")
}

func TestDecodeHeader(t *testing.T) {
	w, h, format, ok := decodeHeader(testpdf.JPEG(12, 34))
	require.True(t, ok)
	assert.Equal(t, 12, w)
	assert.Equal(t, 34, h)
	assert.Equal(t, "jpg", format)

	_, _, _, ok = decodeHeader([]byte("not an image"))
	assert.False(t, ok)
	_, _, _, ok = decodeHeader(nil)
	assert.False(t, ok)
}
