package repository

// Repositories agrupa los repositorios atados a una organización (y opcionalmente a una transacción).
// Es el "handle" con alcance de tenant: se construye una vez por petición y no existe forma
// de consultar sin el filtro de org_id.
type Repositories struct {
	Products     ProductRepository
	Transactions InventoryTransactionRepository
	Bills        BillRepository
	CreditNotes  CreditNoteRepository
	Customers    CustomerRepository
}
