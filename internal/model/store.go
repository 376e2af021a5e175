package model

// Product is a catalog entry of the host store
type Product struct {
	ID     int64  `bson:"_id" json:"id"`
	Name   string `bson:"name" json:"name"`
	Status string `bson:"status" json:"status"`
}

const ProductStatusPublish = "publish"

const OrderStatusCompleted = "completed"

// Order is a host store order with its line items
type Order struct {
	ID            int64      `bson:"_id" json:"id"`
	Status        string     `bson:"status" json:"status"`
	CustomerEmail string     `bson:"customer_email" json:"customer_email"`
	Items         []LineItem `bson:"items" json:"items"`
}

type LineItem struct {
	ID        int64  `bson:"id" json:"id"`
	ProductID int64  `bson:"product_id" json:"product_id"`
	Name      string `bson:"name" json:"name"`
	Quantity  int32  `bson:"quantity" json:"quantity"`
}
