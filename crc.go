package onewire

// CRC8 computes the Dallas/Maxim 1-Wire CRC of data (polynomial x^8+x^5+x^4+1,
// reflected as 0x8C, initial value 0). Bits are consumed least significant first.
// See Maxim Application Note 27.
//
// Appending the result to data and running CRC8 over the extended slice yields 0.
func CRC8(data []byte) byte {
	var crc byte
	for _, in := range data {
		for range 8 {
			mix := (crc ^ in) & 0x01
			crc >>= 1
			if mix != 0 {
				crc ^= 0x8C
			}
			in >>= 1
		}
	}
	return crc
}
