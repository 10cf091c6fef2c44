package catalog

// Merge combines freshly synced bibliographic data with an existing entry.
// The new data wins for bibliographic fields; acquisition state (file
// references, lock flag) and the accumulated profile set are preserved from
// the existing entry. The account performing the sync is added to the
// profile set.
func Merge(existing, incoming *Item, account string) *Item {
	if incoming == nil {
		incoming = &Item{}
	}
	merged := *incoming

	if existing != nil {
		merged.Profiles = append([]string(nil), existing.Profiles...)
		merged.Locked = existing.Locked

		merged.AudioPath = existing.AudioPath
		merged.AudioSize = existing.AudioSize
		merged.AudioFormat = existing.AudioFormat
		merged.VoucherPath = existing.VoucherPath
		merged.MultiPart = existing.MultiPart
		merged.Parts = append([]Part(nil), existing.Parts...)

		merged.ConvertedPath = existing.ConvertedPath
		merged.ConvertedSize = existing.ConvertedSize
		merged.CoverPath = existing.CoverPath

		merged.DocumentPath = existing.DocumentPath
		merged.DocumentSize = existing.DocumentSize
		merged.DocumentAvailable = existing.DocumentAvailable
	}

	merged.AddProfile(account)
	return &merged
}
