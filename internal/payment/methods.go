package payment

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MethodBCAVA     = "BCA_VIRTUAL_ACCOUNT"
	MethodBNIVA     = "BNI_VIRTUAL_ACCOUNT"
	MethodMandiriVA = "MANDIRI_VIRTUAL_ACCOUNT"

	MethodQRIS = "QRIS"
	MethodCOD  = "COD"

	MethodOVO  = "OVO"
	MethodDANA = "DANA"

	MethodAlfamart  = "ALFAMART"
	MethodIndomaret = "INDOMARET"
)

// IsValidMethod reports whether the method id is one we can hand to the
// provider (or settle on delivery).
func IsValidMethod(method string) bool {
	switch method {
	case MethodBCAVA, MethodBNIVA, MethodMandiriVA,
		MethodQRIS, MethodCOD,
		MethodOVO, MethodDANA,
		MethodAlfamart, MethodIndomaret:
		return true
	}
	return false
}

// IsOffline reports whether the method settles outside the provider, so no
// invoice is created and the order goes straight to placed.
func IsOffline(method string) bool {
	return method == MethodCOD
}

var instructionMap = map[string][]string{
	MethodCOD: {
		"Pesanan akan dikirim ke alamat tujuan",
		"Siapkan uang tunai sebesar {{amount}} saat kurir tiba",
		"Lakukan pembayaran langsung kepada kurir",
	},

	MethodBCAVA: {
		"Buka aplikasi BCA Mobile atau ATM BCA",
		"Pilih menu Transfer → Virtual Account",
		"Masukkan nomor Virtual Account {{payment_code}}",
		"Periksa nominal {{amount}}, lalu selesaikan pembayaran",
	},
	MethodBNIVA: {
		"Buka aplikasi BNI Mobile Banking atau ATM BNI",
		"Pilih menu Virtual Account Billing",
		"Masukkan nomor Virtual Account {{payment_code}}",
		"Periksa nominal {{amount}}, lalu selesaikan pembayaran",
	},
	MethodMandiriVA: {
		"Buka aplikasi Livin' by Mandiri atau ATM Mandiri",
		"Pilih menu Bayar → Multi Payment",
		"Masukkan nomor Virtual Account {{payment_code}}",
		"Periksa nominal {{amount}}, lalu selesaikan pembayaran",
	},

	MethodQRIS: {
		"Buka aplikasi e-wallet atau mobile banking yang mendukung QRIS",
		"Pindai kode QR yang ditampilkan",
		"Periksa nominal {{amount}}, lalu konfirmasi pembayaran",
	},

	MethodOVO: {
		"Buka aplikasi OVO",
		"Konfirmasi pembayaran {{amount}} pada notifikasi yang muncul",
		"Masukkan PIN OVO untuk menyelesaikan pembayaran",
	},
	MethodDANA: {
		"Buka aplikasi DANA",
		"Konfirmasi pembayaran {{amount}}",
		"Masukkan PIN DANA untuk menyelesaikan transaksi",
	},

	MethodAlfamart: {
		"Datang ke gerai Alfamart terdekat",
		"Tunjukkan kode pembayaran {{payment_code}} kepada kasir",
		"Lakukan pembayaran sesuai nominal {{amount}}",
	},
	MethodIndomaret: {
		"Datang ke gerai Indomaret terdekat",
		"Tunjukkan kode pembayaran {{payment_code}} kepada kasir",
		"Lakukan pembayaran sesuai nominal {{amount}}",
	},
}

func GetInstructions(method string) []string {
	if steps, ok := instructionMap[method]; ok {
		return steps
	}
	return []string{"Ikuti instruksi pembayaran yang tersedia pada halaman ini"}
}

// FormatIDR renders an amount the way the instructions show it: whole
// rupiah, no grouping.
func FormatIDR(amount decimal.Decimal) string {
	return "Rp" + amount.Round(0).String()
}

type InstructionVars map[string]string

func InjectVariables(steps []string, vars InstructionVars) []string {
	result := make([]string, 0, len(steps))
	for _, step := range steps {
		updated := step
		for key, value := range vars {
			updated = strings.ReplaceAll(updated, "{{"+key+"}}", value)
		}
		result = append(result, updated)
	}
	return result
}
