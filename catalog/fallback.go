package catalog

// Well-known hashes used by the fallback table and gauge defaults.
const (
	TPSValue int64 = 1272048601
	RPMValue int64 = 1699696209
	AFRValue int64 = -1093429509

	MAPValue      int64 = 1281101952
	OilPressValue int64 = 598268994
	CLTValue      int64 = 417946098
	IATValue      int64 = 417952269
)

// Fallback returns the three-entry table used when the catalog cannot be
// loaded.
func Fallback() *Catalog {
	c := New([]Variable{
		{ID: TPSValue, Name: "TPSValue", Provenance: Readable},
		{ID: RPMValue, Name: "RPMValue", Provenance: Readable},
		{ID: AFRValue, Name: "AFRValue", Provenance: Readable},
	})
	c.fallback = true
	return c
}
