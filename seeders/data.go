package seeders

type categorySeed struct {
	Name        string
	Description string
}

// Базовые области для автоназначения тикетов
var defaultCategories = []categorySeed{
	{Name: "Software", Description: "Aplicaciones, sistemas y licencias"},
	{Name: "Hardware", Description: "Equipos, impresoras y periféricos"},
	{Name: "Red", Description: "Conectividad, VPN y correo"},
	{Name: "Accesos", Description: "Cuentas, contraseñas y permisos"},
	{Name: "Otros", Description: "Consultas generales"},
}
