package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified name of the portfolio service
const ServiceName = "portfolio.v1.PortfolioService"

const (
	methodCreatePortfolio     = "CreatePortfolio"
	methodGetPortfolioReturns = "GetPortfolioReturns"
	methodUploadTransactions  = "UploadTransactions"
	methodUpdateTransaction   = "UpdateTransaction"
	methodDeleteTransaction   = "DeleteTransaction"
)

// PortfolioServiceServer is the server API for PortfolioService
type PortfolioServiceServer interface {
	CreatePortfolio(context.Context, *CreatePortfolioRequest) (*CreatePortfolioResponse, error)
	GetPortfolioReturns(context.Context, *GetPortfolioReturnsRequest) (*GetPortfolioReturnsResponse, error)
	UploadTransactions(context.Context, *UploadTransactionsRequest) (*UploadTransactionsResponse, error)
	UpdateTransaction(context.Context, *UpdateTransactionRequest) (*UpdateTransactionResponse, error)
	DeleteTransaction(context.Context, *DeleteTransactionRequest) (*DeleteTransactionResponse, error)
}

// ServiceDesc describes PortfolioService for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PortfolioServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodCreatePortfolio, Handler: unaryHandler(methodCreatePortfolio, PortfolioServiceServer.CreatePortfolio)},
		{MethodName: methodGetPortfolioReturns, Handler: unaryHandler(methodGetPortfolioReturns, PortfolioServiceServer.GetPortfolioReturns)},
		{MethodName: methodUploadTransactions, Handler: unaryHandler(methodUploadTransactions, PortfolioServiceServer.UploadTransactions)},
		{MethodName: methodUpdateTransaction, Handler: unaryHandler(methodUpdateTransaction, PortfolioServiceServer.UpdateTransaction)},
		{MethodName: methodDeleteTransaction, Handler: unaryHandler(methodDeleteTransaction, PortfolioServiceServer.DeleteTransaction)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "portfolio/v1/portfolio.proto",
}

// RegisterPortfolioServiceServer registers srv on s
func RegisterPortfolioServiceServer(s grpc.ServiceRegistrar, srv PortfolioServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unaryHandler decodes the request and runs call through the interceptor chain
func unaryHandler[Req, Resp any](
	method string,
	call func(PortfolioServiceServer, context.Context, *Req) (*Resp, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		impl := srv.(PortfolioServiceServer)
		if interceptor == nil {
			return call(impl, ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(impl, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client calls PortfolioService using the JSON codec
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a PortfolioService client on an existing connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) CreatePortfolio(ctx context.Context, in *CreatePortfolioRequest, opts ...grpc.CallOption) (*CreatePortfolioResponse, error) {
	out := new(CreatePortfolioResponse)
	if err := c.invoke(ctx, methodCreatePortfolio, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetPortfolioReturns(ctx context.Context, in *GetPortfolioReturnsRequest, opts ...grpc.CallOption) (*GetPortfolioReturnsResponse, error) {
	out := new(GetPortfolioReturnsResponse)
	if err := c.invoke(ctx, methodGetPortfolioReturns, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UploadTransactions(ctx context.Context, in *UploadTransactionsRequest, opts ...grpc.CallOption) (*UploadTransactionsResponse, error) {
	out := new(UploadTransactionsResponse)
	if err := c.invoke(ctx, methodUploadTransactions, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateTransaction(ctx context.Context, in *UpdateTransactionRequest, opts ...grpc.CallOption) (*UpdateTransactionResponse, error) {
	out := new(UpdateTransactionResponse)
	if err := c.invoke(ctx, methodUpdateTransaction, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, in *DeleteTransactionRequest, opts ...grpc.CallOption) (*DeleteTransactionResponse, error) {
	out := new(DeleteTransactionResponse)
	if err := c.invoke(ctx, methodDeleteTransaction, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, fullMethod(method), in, out, opts...)
}
