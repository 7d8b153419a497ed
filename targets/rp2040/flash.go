//go:build rp2040

package main

import "machine"

// FlashStorage persists the configuration record in the last erase
// block of the data area, implementing config.BlockStorage.
type FlashStorage struct{}

// NewFlashStorage returns the flash-backed store backend.
func NewFlashStorage() *FlashStorage {
	return &FlashStorage{}
}

// Read fills buf from the start of the storage block.
func (f *FlashStorage) Read(buf []byte) error {
	_, err := machine.Flash.ReadAt(buf, 0)
	return err
}

// Write erases the block and writes data at its start.
func (f *FlashStorage) Write(data []byte) error {
	if err := machine.Flash.EraseBlocks(0, 1); err != nil {
		return err
	}
	_, err := machine.Flash.WriteAt(data, 0)
	return err
}
