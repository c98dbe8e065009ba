package tray

// The Windows tray loads icons from ICO data.
func platformIcon(pngData []byte) []byte { return wrapICO(pngData, iconSize) }
